// Package signature authenticates raw webhook bodies against the shared
// secret the remote service signs them with.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// Prefix is the scheme marker the remote service puts in front of the hex
// digest. Bare hex values are accepted as well.
const Prefix = "sha256="

var (
	// ErrMissingSecret means there is no shared secret to verify against,
	// independent of what the signature says.
	ErrMissingSecret = errors.New("signature: shared secret is not configured")

	// ErrInvalid covers every verification failure: digest mismatch,
	// non-hex input, wrong digest length.
	ErrInvalid = errors.New("signature: verification failed")
)

// Verify checks the HMAC-SHA256 of body under secret against provided.
// provided may be "sha256=<hex>" or bare "<hex>". The comparison of the
// decoded digests is constant time; malformed hex and wrong-length values
// fail deterministically without branching on partial content.
func Verify(body []byte, provided, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrMissingSecret
	}

	sig := strings.TrimSpace(provided)
	sig = strings.TrimPrefix(sig, Prefix)
	if sig == "" {
		return ErrInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := mac.Sum(nil)

	decoded, err := hex.DecodeString(sig)
	if err != nil || len(decoded) != len(expected) {
		return ErrInvalid
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return ErrInvalid
	}
	return nil
}

// Sign computes the "sha256=<hex>" form of the signature for body. Used by
// the registration flow's verification ping and by tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}
