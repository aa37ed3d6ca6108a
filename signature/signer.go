// Package signature provides the HMAC primitives gateway callbacks are
// signed with.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strconv"
)

// SHA256 returns the hex HMAC-SHA256 of data keyed by secret.
func SHA256(secret string, data []byte) string {
	return sum(sha256.New, secret, data)
}

// SHA512 returns the hex HMAC-SHA512 of data keyed by secret.
func SHA512(secret string, data []byte) string {
	return sum(sha512.New, secret, data)
}

// Timestamped returns the hex HMAC-SHA256 of "{timestamp}:{payload}".
func Timestamped(secret string, timestamp int64, payload []byte) string {
	content := make([]byte, 0, len(payload)+21)
	content = strconv.AppendInt(content, timestamp, 10)
	content = append(content, ':')
	content = append(content, payload...)
	return SHA256(secret, content)
}

func sum(h func() hash.Hash, secret string, data []byte) string {
	mac := hmac.New(h, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
