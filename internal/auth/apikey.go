// Package auth validates caller credentials against the configured
// expectation and provides key-generation helpers for the keygen tool.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// Credential names used by the two non-trivial locations.
const (
	KeyHeader     = "X-Api-Key"
	KeyQueryParam = "token"
)

// Validate checks the caller-supplied credential per the configured location
// strategy. With location "none" every request is accepted. Comparison is
// constant-time so a mismatch reveals nothing about the expected key.
func Validate(req *types.InboundRequest, cfg *config.EndpointConfig) bool {
	switch cfg.APIKeyLocation {
	case config.APIKeyNone:
		return true
	case config.APIKeyHeader:
		return equal(req.Header.Get(KeyHeader), cfg.APIKey)
	case config.TokenQueryParam:
		return equal(req.Query.Get(KeyQueryParam), cfg.APIKey)
	default:
		// Unknown locations are rejected outright; config validation
		// should have caught this at startup.
		return false
	}
}

func equal(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Presented returns the credential the caller supplied for the configured
// location, for safe-prefix logging. Empty when the location carries none.
func Presented(req *types.InboundRequest, cfg *config.EndpointConfig) string {
	switch cfg.APIKeyLocation {
	case config.APIKeyHeader:
		return req.Header.Get(KeyHeader)
	case config.TokenQueryParam:
		return req.Query.Get(KeyQueryParam)
	}
	return ""
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateKey creates a caller API key with the format: hook-{32 random
// alphanumeric chars}.
func GenerateKey() (string, error) {
	random, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate random: %w", err)
	}
	return "hook-" + random, nil
}

// KeyPrefix extracts a display-safe prefix of a key for logging.
func KeyPrefix(key string) string {
	if len(key) > 13 {
		return key[:13] + "..."
	}
	return key
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}
