package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSigningSecret(t *testing.T) {
	a, err := GenerateSigningSecret()
	require.NoError(t, err)
	b, err := GenerateSigningSecret()
	require.NoError(t, err)

	assert.Len(t, a, SigningSecretLength)
	assert.NotEqual(t, a, b)
	assert.True(t, IsStrongSigningSecret(a))
	for _, r := range a {
		assert.True(t, strings.ContainsRune(secretChars, r), "unexpected character %q", r)
	}
}

func TestGeneratePassword(t *testing.T) {
	p, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, p, PasswordLength)
	assert.NotContainsf(t, p, "0", "look-alike characters are excluded")
	assert.NotContains(t, p, "O")
	assert.NotContains(t, p, "l")
}

func TestGenerateHexSecret(t *testing.T) {
	s, err := GenerateHexSecret(16)
	require.NoError(t, err)
	assert.Len(t, s, 32)

	_, err = GenerateHexSecret(0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestIsStrongSigningSecret(t *testing.T) {
	assert.False(t, IsStrongSigningSecret("short"))
	assert.False(t, IsStrongSigningSecret("   "+strings.Repeat("a", 31)+"  "))
	assert.True(t, IsStrongSigningSecret(strings.Repeat("a", 32)))
}

func TestGenerateRandomString_InvalidLength(t *testing.T) {
	_, err := generateRandomString(0, secretChars)
	assert.ErrorIs(t, err, ErrInvalidLength)
}
