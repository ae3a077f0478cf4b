// Package signature implements Ed25519 verification of signed webhook
// deliveries. The scheme signs the concatenation of the timestamp header and
// the raw request body, which is the convention used by Discord-style
// interaction callbacks.
package signature

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Verify checks sig (hex) over timestamp+body using publicKey (hex).
//
// Any malformed encoding, wrong key size, or failed verification yields
// false; none of these are internal errors, they all just mean the delivery
// is not authentic. Inputs are never mutated or logged.
func Verify(rawBody []byte, timestamp, sig, publicKey string) bool {
	if timestamp == "" || sig == "" || publicKey == "" {
		return false
	}

	pub, err := hex.DecodeString(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}

	sigBytes, err := hex.DecodeString(sig)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(rawBody))
	msg = append(msg, timestamp...)
	msg = append(msg, rawBody...)

	return ed25519.Verify(ed25519.PublicKey(pub), msg, sigBytes)
}

// ValidPublicKey reports whether s is a well-formed hex Ed25519 public key.
// Used by config validation to fail fast at startup.
func ValidPublicKey(s string) bool {
	pub, err := hex.DecodeString(s)
	return err == nil && len(pub) == ed25519.PublicKeySize
}
