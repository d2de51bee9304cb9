// Package secrets generates and hashes API key material.
//
// Keys look like "eg_V1StGXR8Z5jdHi6BmyT9pQ4wx2Ncrsku". The hash is SHA3-256:
// deterministic, so resolution can compare hashes directly after narrowing
// candidates by prefix, and the raw secret still cannot be recovered from
// storage.
package secrets

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/sha3"
)

const (
	keyTag = "eg_"

	// secretLength is the random portion; 32 nanoid chars carry ~190 bits.
	secretLength = 32

	// PrefixLength is the number of leading key characters stored in clear
	// for indexed lookup. Covers the tag plus five random chars.
	PrefixLength = 8
)

// Generate creates a cryptographically random API key secret.
func Generate() (string, error) {
	body, err := gonanoid.New(secretLength)
	if err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return keyTag + body, nil
}

// Hash returns the hex-encoded SHA3-256 digest of a secret.
func Hash(secret string) string {
	sum := sha3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Prefix extracts the non-secret lookup prefix of a presented key. Returns
// false when the key is too short to carry one.
func Prefix(key string) (string, bool) {
	if len(key) < PrefixLength {
		return "", false
	}
	return key[:PrefixLength], true
}

// Verify reports whether a presented secret hashes to the stored digest.
// Comparison is constant-time; timing reveals nothing about stored hashes.
func Verify(secret, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(secret)), []byte(storedHash)) == 1
}
