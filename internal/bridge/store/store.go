package store

import (
	"context"
	"errors"

	"github.com/crossauth/bridge/internal/bridge/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// CredentialStore is the contract each external credential system exposes to
// the bridge. The bridge consumes exactly these three operations per store;
// everything else (password login, token revocation, admin tooling) stays
// inside the store and is none of our business.
type CredentialStore interface {
	// Validate checks a raw bearer token against the store and returns the
	// bound identity. It returns domain.ErrInvalidToken when the store does
	// not recognise the token (including expired tokens). The identity is
	// returned even when inactive; callers decide what inactive means.
	Validate(ctx context.Context, token string) (domain.Identity, error)

	// Lookup fetches an identity by its stable key (username).
	// Returns ErrNotFound when absent.
	Lookup(ctx context.Context, key string) (domain.Identity, error)

	// Create inserts a new identity record. The driver generates an
	// unusable placeholder secret for the record; mirrored identities are
	// only ever used for token-to-identity mapping, never password login.
	// Returns ErrAlreadyExists when the key is already taken.
	Create(ctx context.Context, id domain.Identity) (domain.Identity, error)

	// Ping verifies the store's backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// TokenIssuer is the optional minting capability the Translator needs when
// the target format is store-native. Both bundled drivers implement it.
type TokenIssuer interface {
	// Issue mints a token in the store's native format bound to the given
	// identity. Issuance semantics are store-native: the legacy driver
	// reuses the identity's existing token row when one exists.
	Issue(ctx context.Context, id domain.Identity) (domain.Token, error)
}
