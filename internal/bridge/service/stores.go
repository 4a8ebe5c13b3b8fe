package service

import (
	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store"
)

// CredentialStore is what the bridge services need from a store driver:
// the external contract plus native token minting.
type CredentialStore interface {
	store.CredentialStore
	store.TokenIssuer
}

// Stores bundles the two configured credential stores. The zero value is
// unusable; both fields must be set.
type Stores struct {
	Legacy CredentialStore
	Portal CredentialStore
}

// For returns the store for the given tag, or nil for unified (which has no
// store of record) and unknown tags.
func (s Stores) For(tag domain.Store) CredentialStore {
	switch tag {
	case domain.StoreLegacy:
		return s.Legacy
	case domain.StorePortal:
		return s.Portal
	}
	return nil
}
