package domain

import "errors"

var (
	// ErrInvalidToken means the declared origin store rejected the token.
	ErrInvalidToken = errors.New("bridge: invalid token")

	// ErrUnauthenticated means no store recognised the bearer string.
	ErrUnauthenticated = errors.New("bridge: unauthenticated")

	// ErrInactive means the token resolved to a disabled identity.
	ErrInactive = errors.New("bridge: identity inactive")

	// ErrIdentityConflict means the stable key already maps to a different
	// record that cannot be merged. Surfaced, never silently overwritten.
	ErrIdentityConflict = errors.New("bridge: identity conflict")

	// ErrUnknownStore means a caller named a store the bridge is not
	// configured with.
	ErrUnknownStore = errors.New("bridge: unknown store")
)
