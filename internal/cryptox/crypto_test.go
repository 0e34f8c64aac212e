package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, argonKeyLen)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	s1, h1 := HashPassword("hunter2")
	s2, h2 := HashPassword("hunter2")

	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, h1, h2)
	assert.NotContains(t, string(h1), "hunter2")
}

func TestVerifyPassword(t *testing.T) {
	salt, hash := HashPassword("correct horse")

	assert.True(t, VerifyPassword("correct horse", salt, hash))
	assert.False(t, VerifyPassword("wrong horse", salt, hash))
	assert.False(t, VerifyPassword("correct horse", []byte("other-salt"), hash))
	assert.False(t, VerifyPassword("correct horse", salt, nil))
}
