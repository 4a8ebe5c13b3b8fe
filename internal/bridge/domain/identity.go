package domain

import "time"

// Store identifies which credential system a token or identity came from.
type Store string

const (
	// StoreLegacy is the opaque-token credential store (token table lookup).
	StoreLegacy Store = "legacy"

	// StorePortal is the HS256 JWT credential store with its own user table.
	StorePortal Store = "portal"

	// StoreUnified is the bridge's own EdDSA token format. It has no user
	// table of record; unified tokens carry the store they were minted from.
	StoreUnified Store = "unified"
)

// Valid reports whether s names a known credential store.
func (s Store) Valid() bool {
	switch s {
	case StoreLegacy, StorePortal, StoreUnified:
		return true
	}
	return false
}

// Role is the coarse permission tier mirrored across both stores.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleUser    Role = "user"
)

// ParseRole maps a stored role string to a Role, defaulting to RoleUser
// for anything unrecognised so a bad row never escalates privileges.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff, RoleUser:
		return Role(s)
	}
	return RoleUser
}

// Identity is the bridge's normalized view of a user record. Key is the
// stable shared attribute (username) that reconciliation joins on; there is
// exactly one Identity per Key across both stores.
type Identity struct {
	ID          string // store-local record id (ULID in our drivers)
	Key         string // username, globally unique
	Email       string
	DisplayName string
	Role        Role
	Active      bool

	// SourceStore tags which store validated or produced this Identity.
	// Observability only; it never participates in reconciliation.
	SourceStore Store

	CreatedAt time.Time
	UpdatedAt time.Time
}
