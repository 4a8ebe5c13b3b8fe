package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/pkg/jwtx"
	"github.com/crossauth/bridge/pkg/slogx"
)

// Translator exchanges a valid credential from one store for a freshly
// minted credential of another. Translation never copies token material;
// the input is validated against its origin and the output is minted by
// the target, so each store's token semantics stay intact.
type Translator struct {
	Stores     Stores
	Reconciler *Reconciler

	// Keys signs unified tokens and verifies ones presented as input.
	Keys *jwtx.KeyManager

	// Issuer and Audience go into minted unified claims.
	Issuer   string
	Audience []string

	// UnifiedTTL bounds minted unified tokens. Zero means
	// jwtx.DefaultUnifiedTokenTTL.
	UnifiedTTL time.Duration
}

// Translate validates token against its origin store and mints an
// equivalent credential for target. Inactive identities cannot translate.
// For a store-backed target the identity is reconciled into that store
// first, so translation is also the moment a mirror record appears.
func (t *Translator) Translate(
	ctx context.Context,
	token domain.Token,
	target domain.Store,
) (domain.Token, error) {
	if !target.Valid() {
		return domain.Token{}, fmt.Errorf("%w: %q", domain.ErrUnknownStore, target)
	}

	id, err := t.validate(ctx, token)
	if err != nil {
		return domain.Token{}, err
	}
	if !id.Active {
		return domain.Token{}, domain.ErrInactive
	}

	if target == domain.StoreUnified {
		return t.mintUnified(id)
	}

	id, err = t.Reconciler.Reconcile(ctx, id, id.SourceStore, target)
	if err != nil {
		return domain.Token{}, err
	}

	minted, err := t.Stores.For(target).Issue(ctx, id)
	if err != nil {
		return domain.Token{}, fmt.Errorf("issue %s token for %q: %w", target, id.Key, err)
	}

	slogx.FromContext(ctx).Info("translated token",
		slog.String("key", id.Key),
		slog.String("from", string(token.Origin)),
		slog.String("to", string(target)),
	)
	return minted, nil
}

// validate resolves the input token to an identity as known by its origin
// store. Unified tokens resolve through their src claim, so revocation in
// the source store propagates immediately.
func (t *Translator) validate(ctx context.Context, token domain.Token) (domain.Identity, error) {
	switch token.Origin {
	case domain.StoreLegacy, domain.StorePortal:
		id, err := t.Stores.For(token.Origin).Validate(ctx, token.Value)
		if err != nil {
			return domain.Identity{}, err
		}
		return id, nil
	case domain.StoreUnified:
		return resolveUnified(ctx, t.Keys.Verifier, t.Stores, token.Value)
	}
	return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrUnknownStore, token.Origin)
}

// mintUnified signs a fresh bridge token carrying the identity and its
// source store tag.
func (t *Translator) mintUnified(id domain.Identity) (domain.Token, error) {
	ttl := t.UnifiedTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultUnifiedTokenTTL
	}

	now := time.Now().UTC()
	claims := jwtx.NewUnifiedClaims(
		id.Key, string(id.SourceStore), id.Email, id.DisplayName, string(id.Role),
		ttl, t.Issuer, t.Audience, now,
	)

	signed, err := t.Keys.Signer().Sign(claims)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign unified token for %q: %w", id.Key, err)
	}

	return domain.Token{
		Value:     signed,
		Origin:    domain.StoreUnified,
		Subject:   id.Key,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
