package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong", hash), ErrHashMismatch)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	for _, bad := range []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$bogus$c2FsdA$aGFzaA",
	} {
		require.Error(t, VerifyPassword("anything", bad), "hash=%q", bad)
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same password")
	require.NoError(t, err)
	b, err := HashPassword("same password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestNewUnusableSecret(t *testing.T) {
	secret, err := NewUnusableSecret()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(secret, "$argon2id$"))

	// Nothing guessable should verify against it.
	require.Error(t, VerifyPassword("", secret))
	require.Error(t, VerifyPassword("password", secret))
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	other, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestGenerateHexToken(t *testing.T) {
	tok, err := GenerateHexToken(20)
	require.NoError(t, err)
	require.Len(t, tok, 40)

	_, err = hex.DecodeString(tok)
	require.NoError(t, err)

	_, err = GenerateHexToken(-1)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	a := FingerprintToken("token-a")
	b := FingerprintToken("token-b")

	require.Equal(t, a, FingerprintToken("token-a"))
	require.NotEqual(t, a, b)
	require.NotContains(t, a, "token-a")
}
