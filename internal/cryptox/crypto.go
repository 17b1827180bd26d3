// Package cryptox derives and checks verifiers for short local secrets such
// as the device PIN. Only verifiers are ever stored, never the secret.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of salts produced by NewSalt.
const SaltSize = 16

// DeriveKey stretches secret with argon2id.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key into the value that gets persisted.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// NewSalt returns a fresh random salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Seal returns the verifier for secret under salt. The intermediate key is
// wiped before returning.
func Seal(secret, salt []byte) []byte {
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}

// Check reports whether candidate produces verifier under salt, comparing in
// constant time.
func Check(candidate, salt, verifier []byte) bool {
	got := Seal(candidate, salt)
	return subtle.ConstantTimeCompare(got, verifier) == 1
}
