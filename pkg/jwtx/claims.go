package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultUnifiedTokenTTL is the default lifetime for unified tokens. It
// matches the cross-store token lifetime both bridged systems already use.
const DefaultUnifiedTokenTTL = 24 * time.Hour

// Claims are the unified-token claims. The subject is the identity's stable
// key (username); Src records which credential store the identity was
// validated against when the token was minted.
type Claims struct {
	jwt.RegisteredClaims

	// Src is the origin store tag ("legacy" or "portal"). The gate
	// re-validates the subject against this store on every authentication,
	// so a unified token dies with its source record.
	Src string `json:"src,omitempty"`

	// Email of the identity at mint time.
	Email string `json:"email,omitempty"`

	// DisplayName of the identity at mint time.
	DisplayName string `json:"name,omitempty"`

	// Role is the mirrored permission tier (admin, manager, staff, user).
	Role string `json:"role,omitempty"`
}

// NewUnifiedClaims builds minimally-correct claims for a unified token.
func NewUnifiedClaims(
	subject, src, email, displayName, role string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Src:         src,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it becomes valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
