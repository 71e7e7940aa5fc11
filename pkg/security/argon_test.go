package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h := NewArgonHash()

	hash, err := h.HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := h.VerifyPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPassword("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalted(t *testing.T) {
	h := NewArgonHash()

	first, err := h.HashPassword("hunter22")
	require.NoError(t, err)
	second, err := h.HashPassword("hunter22")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	h := NewArgonHash()

	_, err := h.VerifyPassword("hunter22", "not-a-phc-string")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)
}
