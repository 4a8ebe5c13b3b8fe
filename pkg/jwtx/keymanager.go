package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
)

// KeyManager owns the unified-token signing keys. Keys are ephemeral: the
// bridge generates a fresh set on startup, which is fine because unified
// tokens are short-lived derivatives of store-native credentials and a
// restart only forces clients back through translation.
type KeyManager struct {
	mu      sync.RWMutex
	signers []*EdDSASigner
	active  int

	KeySet   *KeySet
	Verifier Verifier
}

// NewKeyManager generates n Ed25519 signing keys, registers them in a
// KeySet, and prepares a verifier over that set. The first key signs;
// the rest exist so a future rotation has somewhere to land.
func NewKeyManager(n int, issuer string, audience []string) (*KeyManager, error) {
	if n < 1 {
		n = 1
	}

	keys := NewKeySet()
	signers := make([]*EdDSASigner, 0, n)

	for i := 0; i < n; i++ {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate Ed25519 key: %w", err)
		}

		kid, err := randomKID()
		if err != nil {
			return nil, err
		}

		signer, err := NewSignerEdDSA(kid, priv)
		if err != nil {
			return nil, err
		}
		if err := keys.AddSigner(signer); err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}

	return &KeyManager{
		signers:  signers,
		active:   0,
		KeySet:   keys,
		Verifier: NewVerifierEdDSA(keys, issuer, audience),
	}, nil
}

// Signer returns the currently active signing key.
func (m *KeyManager) Signer() Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signers[m.active]
}

// Rotate advances the active signer to the next pre-generated key. Old keys
// stay in the KeySet so outstanding tokens still verify.
func (m *KeyManager) Rotate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = (m.active + 1) % len(m.signers)
}

func randomKID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate kid: %w", err)
	}
	return fmt.Sprintf("%x", b), nil
}
