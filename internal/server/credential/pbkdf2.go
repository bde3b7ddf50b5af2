// Package credential derives and verifies credential material (salt plus
// derived hash) for PINs and passwords, so the secrets themselves are never
// stored.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"

	"corebank/internal/common"
)

const (
	iterations = 100_000
	saltSize   = 32
	keySize    = 32
)

// Verifier hashes and verifies secrets using a salted key-derivation
// function.
type Verifier interface {
	// Derive generates a fresh random salt and the derived hash of secret.
	Derive(secret string) (salt, hash []byte)

	// Verify re-derives the hash of secret with the given salt and compares
	// it to hash in constant time.
	Verify(secret string, salt, hash []byte) bool
}

// PBKDF2Verifier implements Verifier with PBKDF2-HMAC-SHA256 at 100,000
// iterations and 32-byte salts.
type PBKDF2Verifier struct{}

func NewPBKDF2Verifier() *PBKDF2Verifier {
	return &PBKDF2Verifier{}
}

func (v *PBKDF2Verifier) Derive(secret string) ([]byte, []byte) {
	salt := common.GenerateRandByteArray(saltSize)
	return salt, pbkdf2.Key([]byte(secret), salt, iterations, keySize, sha256.New)
}

func (v *PBKDF2Verifier) Verify(secret string, salt, hash []byte) bool {
	if len(salt) == 0 || len(hash) == 0 {
		return false
	}
	candidate := pbkdf2.Key([]byte(secret), salt, iterations, keySize, sha256.New)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
