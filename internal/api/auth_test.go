package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyArgon2id(t *testing.T) {
	hash := hashToken("секретный-токен")

	assert.True(t, verifyArgon2id("секретный-токен", hash))
	assert.False(t, verifyArgon2id("не тот токен", hash))
	assert.False(t, verifyArgon2id("", hash))
}

func TestVerifyArgon2idMalformedHash(t *testing.T) {
	assert.False(t, verifyArgon2id("токен", "не-хеш-вообще"))
	assert.False(t, verifyArgon2id("токен", "$argon2id$v=19$мусор$x$y"))
	assert.False(t, verifyArgon2id("токен", "$argon2id$v=19$m=65536,t=3,p=2$!!!$!!!"))
}
