// Package cryptox hashes and verifies user passwords with argon2id.
package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
)

// SaltSize is the length in bytes of a freshly generated password salt.
const SaltSize = 16

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// DeriveKey stretches password with salt using argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword returns a new random salt and the derived hash of password.
func HashPassword(password string) (salt, hash []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	return salt, DeriveKey([]byte(password), salt)
}

// VerifyPassword reports whether password matches hash under salt.
// The comparison runs in constant time.
func VerifyPassword(password string, salt, hash []byte) bool {
	candidate := DeriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
