package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, kid string) *EdDSASigner {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := NewSignerEdDSA(kid, priv)
	require.NoError(t, err)
	return signer
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer := newTestSigner(t, "kid-1")

	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := NewVerifierEdDSA(keys, "https://bridge.test", []string{"bridge"})

	claims := NewUnifiedClaims(
		"alice", "legacy", "alice@example.com", "Alice", "staff",
		time.Hour, "https://bridge.test", []string{"bridge"}, time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Subject)
	require.Equal(t, "legacy", got.Src)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "Alice", got.DisplayName)
	require.Equal(t, "staff", got.Role)
	require.NotEmpty(t, got.ID, "jti is always set")
}

func TestVerifyRejectsUnknownKID(t *testing.T) {
	signer := newTestSigner(t, "kid-1")
	other := newTestSigner(t, "kid-2")

	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(other))
	verifier := NewVerifierEdDSA(keys, "", nil)

	claims := NewUnifiedClaims("bob", "portal", "", "", "user",
		time.Hour, "", nil, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsWrongIssuerOrAudience(t *testing.T) {
	signer := newTestSigner(t, "kid-1")
	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	claims := NewUnifiedClaims("carol", "legacy", "", "", "user",
		time.Hour, "https://other.test", []string{"other"}, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	t.Run("issuer mismatch", func(t *testing.T) {
		verifier := NewVerifierEdDSA(keys, "https://bridge.test", nil)
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		verifier := NewVerifierEdDSA(keys, "", []string{"bridge"})
		_, err := verifier.Verify(token)
		require.ErrorIs(t, err, ErrAudience)
	})

	t.Run("no expectations means no enforcement", func(t *testing.T) {
		verifier := NewVerifierEdDSA(keys, "", nil)
		_, err := verifier.Verify(token)
		require.NoError(t, err)
	})
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t, "kid-1")
	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := NewVerifierEdDSA(keys, "", nil)

	claims := NewUnifiedClaims("dave", "legacy", "", "", "user",
		time.Hour, "", nil, time.Now().UTC().Add(-2*time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	keys := NewKeySet()
	require.NoError(t, keys.AddSigner(newTestSigner(t, "kid-1")))
	verifier := NewVerifierEdDSA(keys, "", nil)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := verifier.Verify(tok)
		require.Error(t, err, "token=%q", tok)
	}
}

func TestKeyManager(t *testing.T) {
	km, err := NewKeyManager(3, "https://bridge.test", nil)
	require.NoError(t, err)

	require.True(t, km.KeySet.IsReady())
	require.Len(t, km.KeySet.PublicJWKS().Keys, 3)

	t.Run("all pre-generated keys verify after rotation", func(t *testing.T) {
		first := km.Signer()
		claims := NewUnifiedClaims("erin", "portal", "", "", "user",
			time.Hour, "https://bridge.test", nil, time.Now().UTC())

		tokenBefore, err := first.Sign(claims)
		require.NoError(t, err)

		km.Rotate()
		require.NotEqual(t, first.KID(), km.Signer().KID())

		tokenAfter, err := km.Signer().Sign(claims)
		require.NoError(t, err)

		_, err = km.Verifier.Verify(tokenBefore)
		require.NoError(t, err)
		_, err = km.Verifier.Verify(tokenAfter)
		require.NoError(t, err)
	})

	t.Run("minimum of one key", func(t *testing.T) {
		km, err := NewKeyManager(0, "", nil)
		require.NoError(t, err)
		require.Len(t, km.KeySet.PublicJWKS().Keys, 1)
	})
}

func TestKeySetRejectsBadJWKs(t *testing.T) {
	keys := NewKeySet()

	require.Error(t, keys.AddJWK(JWK{Kty: "RSA"}))
	require.Error(t, keys.AddJWK(JWK{Kty: "OKP", Crv: "X25519"}))
	require.Error(t, keys.AddJWK(JWK{Kty: "OKP", Crv: "Ed25519", X: "too-short"}))
	require.False(t, keys.IsReady())
}

func TestJWKRoundTrip(t *testing.T) {
	signer := newTestSigner(t, "kid-rt")

	keys := NewKeySet()
	require.NoError(t, keys.AddJWK(signer.PublicJWK()))

	pub, err := keys.Get("kid-rt")
	require.NoError(t, err)
	require.Len(t, pub, ed25519.PublicKeySize)

	_, err = keys.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)
}
