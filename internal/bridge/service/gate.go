package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store"
	"github.com/crossauth/bridge/pkg/jwtx"
	"github.com/crossauth/bridge/pkg/slogx"
)

// Gate authenticates a bearer credential of any supported format. Stores
// are tried in a fixed order (legacy, then portal, then unified) and the
// first store that recognizes the credential decides the outcome, which
// keeps authentication deterministic without tagging tokens by shape.
type Gate struct {
	Stores   Stores
	Verifier jwtx.Verifier
}

// checkOrder is the fixed probe order. Legacy opaque tokens and JWTs never
// collide in practice, but the order is still pinned so the behavior does
// not depend on map iteration or configuration order.
var checkOrder = []domain.Store{domain.StoreLegacy, domain.StorePortal, domain.StoreUnified}

// Authenticate resolves a bearer credential to an identity.
//
// Credentials no store recognizes fail with domain.ErrUnauthenticated.
// A recognized credential whose identity has been deactivated fails with
// domain.ErrInactive, which is a deliberate distinction: the caller proved
// who they are, they just aren't allowed in anymore.
func (g *Gate) Authenticate(ctx context.Context, bearer string) (domain.Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	for _, tag := range checkOrder {
		id, err := g.check(ctx, tag, bearer)
		if err == nil {
			if !id.Active {
				return domain.Identity{}, domain.ErrInactive
			}
			return id, nil
		}
		if errors.Is(err, domain.ErrInvalidToken) {
			continue // not this store's credential, try the next
		}
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Debug("credential not recognized by any store")
	return domain.Identity{}, domain.ErrUnauthenticated
}

func (g *Gate) check(ctx context.Context, tag domain.Store, bearer string) (domain.Identity, error) {
	if tag == domain.StoreUnified {
		id, err := resolveUnified(ctx, g.Verifier, g.Stores, bearer)
		if err != nil {
			return domain.Identity{}, err
		}
		id.SourceStore = domain.StoreUnified
		return id, nil
	}
	return g.Stores.For(tag).Validate(ctx, bearer)
}

// resolveUnified verifies a bridge-minted token and re-validates its
// subject against the source store named in the src claim. A unified token
// is a derivative credential: if the source record is gone the token is
// dead, and if the record was deactivated the caller is inactive even
// though the signature still checks out. The returned identity keeps the
// source store's tag so callers minting fresh tokens preserve provenance.
func resolveUnified(
	ctx context.Context,
	verifier jwtx.Verifier,
	stores Stores,
	bearer string,
) (domain.Identity, error) {
	claims, err := verifier.Verify(bearer)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	src := stores.For(domain.Store(claims.Src))
	if src == nil || claims.Subject == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	id, err := src.Lookup(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("unified token subject vanished from source store",
				slog.String("subject", claims.Subject),
				slog.String("src", claims.Src),
			)
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, err
	}

	return id, nil
}
