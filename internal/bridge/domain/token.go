package domain

import "time"

// Token is an opaque credential plus the metadata the bridge needs to route
// it: which store minted it and which identity it is bound to. A Token is
// valid only for as long as its origin store still recognises it; the bridge
// never caches validity across calls.
type Token struct {
	Value   string
	Origin  Store
	Subject string // bound Identity key

	IssuedAt  time.Time
	ExpiresAt time.Time // zero for tokens that do not expire (legacy)
}

// Expires reports whether the token carries an expiry at all.
func (t Token) Expires() bool { return !t.ExpiresAt.IsZero() }
