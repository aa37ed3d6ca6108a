package signature

import (
	"crypto/hmac"
	"errors"
	"strings"
)

// ErrInvalidSignature is returned when a callback fails verification.
var ErrInvalidSignature = errors.New("hookgate: invalid callback signature")

// Equal compares two hex digests in constant time, ignoring case.
func Equal(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(strings.TrimSpace(got))))
}

// ParseHeader splits a "k1=v1;k2=v2" signature header into its parts.
// Repeated keys keep the last value.
func ParseHeader(h string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(h, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
