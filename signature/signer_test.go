package signature_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/mahmoodhamdi/hookgate/signature"
)

func TestSHA256KnownVector(t *testing.T) {
	payload := []byte(`{"tran_ref":"TST2110400143785"}`)
	secret := "server_key_123"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if got := signature.SHA256(secret, payload); got != expected {
		t.Errorf("SHA256() = %q, want %q", got, expected)
	}
}

func TestSHA512KnownVector(t *testing.T) {
	data := []byte("1000" + "2024-01-01T00:00:00" + "EGP")
	secret := "paymob_hmac"

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(data)
	expected := hex.EncodeToString(mac.Sum(nil))

	got := signature.SHA512(secret, data)
	if got != expected {
		t.Errorf("SHA512() = %q, want %q", got, expected)
	}
	if len(got) != 128 {
		t.Errorf("expected 128 hex chars, got %d", len(got))
	}
}

func TestTimestampedContent(t *testing.T) {
	payload := []byte(`{"event_id":"evt_01"}`)
	got := signature.Timestamped("pdl_secret", 1700000000, payload)
	want := signature.SHA256("pdl_secret", []byte(`1700000000:{"event_id":"evt_01"}`))
	if got != want {
		t.Errorf("Timestamped() = %q, want %q", got, want)
	}
}

func TestEqual(t *testing.T) {
	sig := signature.SHA256("secret", []byte("body"))

	tests := []struct {
		name     string
		expected string
		got      string
		want     bool
	}{
		{"match", sig, sig, true},
		{"upper case", sig, strings.ToUpper(sig), true},
		{"surrounding space", sig, " " + sig + " ", true},
		{"tampered", sig, signature.SHA256("secret", []byte("b0dy")), false},
		{"empty got", sig, "", false},
		{"empty expected", "", sig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signature.Equal(tt.expected, tt.got); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	parts := signature.ParseHeader("ts=1671552777;h1=eb4d0dc8853be92b7f063b9f3ba5233eb920a09459b6e6b2c26705b4364db151")
	if parts["ts"] != "1671552777" {
		t.Errorf("ts = %q", parts["ts"])
	}
	if parts["h1"] != "eb4d0dc8853be92b7f063b9f3ba5233eb920a09459b6e6b2c26705b4364db151" {
		t.Errorf("h1 = %q", parts["h1"])
	}
	if len(signature.ParseHeader("garbage")) != 0 {
		t.Error("expected no parts for malformed header")
	}
}
