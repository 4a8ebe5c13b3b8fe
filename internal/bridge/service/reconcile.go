package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store"
	"github.com/crossauth/bridge/pkg/slogx"
)

// Reconciler ensures an identity validated by one store has an equivalent
// record in the other, keyed by the stable username. It holds no state of
// its own; the target store is the sole serialization point.
type Reconciler struct {
	Stores Stores
}

// Reconcile returns the identity as known to the target store, creating a
// mirrored record when absent. The second call for the same pair is a
// no-op, and concurrent first calls are safe: "already exists" is success.
//
// A pre-existing record under the same key with a different non-empty email
// is a distinct account we must not absorb; that fails with
// domain.ErrIdentityConflict.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	id domain.Identity,
	from, to domain.Store,
) (domain.Identity, error) {
	if to == from || to == domain.StoreUnified {
		// Nothing to mirror into.
		return id, nil
	}

	target := r.Stores.For(to)
	if target == nil {
		return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrUnknownStore, to)
	}

	existing, err := target.Lookup(ctx, id.Key)
	if err == nil {
		return mergeExisting(id, existing)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, fmt.Errorf("lookup %q in %s: %w", id.Key, to, err)
	}

	mirror := domain.Identity{
		Key:         id.Key,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		Role:        id.Role,
		Active:      id.Active,
	}

	created, err := target.Create(ctx, mirror)
	if err == nil {
		slogx.FromContext(ctx).Info("mirrored identity",
			slog.String("key", id.Key),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		return created, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return domain.Identity{}, fmt.Errorf("create %q in %s: %w", id.Key, to, err)
	}

	// Lost a creation race; the record exists now, fetch the winner's.
	existing, err = target.Lookup(ctx, id.Key)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("lookup %q in %s after create race: %w", id.Key, to, err)
	}
	return mergeExisting(id, existing)
}

// mergeExisting decides whether an existing target record is the same
// account as the incoming identity.
func mergeExisting(incoming, existing domain.Identity) (domain.Identity, error) {
	if incoming.Email != "" && existing.Email != "" && incoming.Email != existing.Email {
		return domain.Identity{}, fmt.Errorf(
			"%w: key %q already bound to a different email", domain.ErrIdentityConflict, incoming.Key)
	}
	return existing, nil
}
