package service

import (
	"context"
	"testing"
	"time"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store/drivers/legacy"
	"github.com/crossauth/bridge/internal/bridge/store/drivers/portal"
	"github.com/crossauth/bridge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPortalSecret = "test-portal-secret-not-for-production"

// fixture wires both in-memory stores plus a key manager, mirroring the
// production assembly without any HTTP in the way.
type fixture struct {
	Stores     Stores
	Legacy     *legacy.Store
	Portal     *portal.Store
	Keys       *jwtx.KeyManager
	Reconciler *Reconciler
	Translator *Translator
	Gate       *Gate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lg, err := legacy.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lg.Close() })
	require.NoError(t, lg.ApplyMigrations())

	pt, err := portal.NewStore(":memory:", []byte(testPortalSecret), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pt.Close() })
	require.NoError(t, pt.ApplyMigrations())

	keys, err := jwtx.NewKeyManager(1, "https://bridge.test", []string{"bridge"})
	require.NoError(t, err)

	stores := Stores{Legacy: lg, Portal: pt}
	rec := &Reconciler{Stores: stores}

	return &fixture{
		Stores:     stores,
		Legacy:     lg,
		Portal:     pt,
		Keys:       keys,
		Reconciler: rec,
		Translator: &Translator{
			Stores:     stores,
			Reconciler: rec,
			Keys:       keys,
			Issuer:     "https://bridge.test",
			Audience:   []string{"bridge"},
			UnifiedTTL: time.Hour,
		},
		Gate: &Gate{Stores: stores, Verifier: keys.Verifier},
	}
}

func (f *fixture) seedLegacyUser(t *testing.T, ctx context.Context, username, email, tokenKey string) domain.Identity {
	t.Helper()

	id, err := f.Legacy.Create(ctx, domain.Identity{
		Key:         username,
		Email:       email,
		DisplayName: username,
		Role:        domain.RoleStaff,
		Active:      true,
	})
	require.NoError(t, err)

	if tokenKey != "" {
		require.NoError(t, f.Legacy.SeedToken(ctx, username, tokenKey))
	}
	return id
}

func (f *fixture) seedPortalUser(t *testing.T, ctx context.Context, username, email string) (domain.Identity, string) {
	t.Helper()

	id, err := f.Portal.Create(ctx, domain.Identity{
		Key:         username,
		Email:       email,
		DisplayName: username,
		Role:        domain.RoleUser,
		Active:      true,
	})
	require.NoError(t, err)

	tok, err := f.Portal.Issue(ctx, id)
	require.NoError(t, err)
	return id, tok.Value
}
