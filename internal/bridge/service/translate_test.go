package service

import (
	"context"
	"strings"
	"testing"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/stretchr/testify/require"
)

const legacyTestToken = "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"

func TestTranslateLegacyToPortal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "alice", "alice@example.com", legacyTestToken)

	out, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StorePortal,
	)
	require.NoError(t, err)
	require.Equal(t, domain.StorePortal, out.Origin)
	require.Equal(t, "alice", out.Subject)
	require.True(t, strings.Count(out.Value, ".") == 2, "portal tokens are JWTs")

	// The minted token authenticates against the portal store directly.
	id, err := f.Portal.Validate(ctx, out.Value)
	require.NoError(t, err)
	require.Equal(t, "alice", id.Key)
	require.Equal(t, "alice@example.com", id.Email)

	// Translation implicitly mirrored the identity.
	_, err = f.Portal.Lookup(ctx, "alice")
	require.NoError(t, err)
}

func TestTranslatePortalToLegacy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, portalToken := f.seedPortalUser(t, ctx, "bob", "bob@example.com")

	out, err := f.Translator.Translate(ctx,
		domain.Token{Value: portalToken, Origin: domain.StorePortal},
		domain.StoreLegacy,
	)
	require.NoError(t, err)
	require.Equal(t, domain.StoreLegacy, out.Origin)
	require.Len(t, out.Value, 40, "legacy tokens are 40 hex chars")

	id, err := f.Legacy.Validate(ctx, out.Value)
	require.NoError(t, err)
	require.Equal(t, "bob", id.Key)
}

func TestTranslateToLegacyReusesExistingToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, portalToken := f.seedPortalUser(t, ctx, "carol", "carol@example.com")

	first, err := f.Translator.Translate(ctx,
		domain.Token{Value: portalToken, Origin: domain.StorePortal},
		domain.StoreLegacy,
	)
	require.NoError(t, err)

	second, err := f.Translator.Translate(ctx,
		domain.Token{Value: portalToken, Origin: domain.StorePortal},
		domain.StoreLegacy,
	)
	require.NoError(t, err)

	// One opaque token per user, get-or-create.
	require.Equal(t, first.Value, second.Value)
}

func TestTranslateToUnified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "dave", "dave@example.com", legacyTestToken)

	out, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StoreUnified,
	)
	require.NoError(t, err)
	require.Equal(t, domain.StoreUnified, out.Origin)

	claims, err := f.Keys.Verifier.Verify(out.Value)
	require.NoError(t, err)
	require.Equal(t, "dave", claims.Subject)
	require.Equal(t, string(domain.StoreLegacy), claims.Src)
	require.Equal(t, "dave@example.com", claims.Email)

	// Minting a unified token must not create a mirror record.
	_, err = f.Portal.Lookup(ctx, "dave")
	require.Error(t, err)
}

func TestTranslateUnifiedBackToNative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "erin", "erin@example.com", legacyTestToken)

	unified, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StoreUnified,
	)
	require.NoError(t, err)

	out, err := f.Translator.Translate(ctx,
		domain.Token{Value: unified.Value, Origin: domain.StoreUnified},
		domain.StorePortal,
	)
	require.NoError(t, err)
	require.Equal(t, domain.StorePortal, out.Origin)

	id, err := f.Portal.Validate(ctx, out.Value)
	require.NoError(t, err)
	require.Equal(t, "erin", id.Key)
}

func TestTranslateUnifiedReMintPreservesProvenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "hana", "hana@example.com", legacyTestToken)

	first, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StoreUnified,
	)
	require.NoError(t, err)

	second, err := f.Translator.Translate(ctx,
		domain.Token{Value: first.Value, Origin: domain.StoreUnified},
		domain.StoreUnified,
	)
	require.NoError(t, err)

	// The re-minted token still points at the real source store, not at
	// the unified format itself.
	claims, err := f.Keys.Verifier.Verify(second.Value)
	require.NoError(t, err)
	require.Equal(t, string(domain.StoreLegacy), claims.Src)

	_, err = f.Gate.Authenticate(ctx, second.Value)
	require.NoError(t, err)
}

func TestTranslateRejectsInvalidToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.Translator.Translate(ctx,
		domain.Token{Value: "deadbeef", Origin: domain.StoreLegacy},
		domain.StorePortal,
	)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTranslateRejectsInactiveIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "frank", "frank@example.com", legacyTestToken)
	require.NoError(t, f.Legacy.SetActive(ctx, "frank", false))

	_, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StorePortal,
	)
	require.ErrorIs(t, err, domain.ErrInactive)
}

func TestTranslateRejectsUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "gina", "gina@example.com", legacyTestToken)

	_, err := f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.Store("mainframe"),
	)
	require.ErrorIs(t, err, domain.ErrUnknownStore)
}

func TestTranslateConflictBlocksMirror(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.seedLegacyUser(t, ctx, "henry", "henry@legacy.example.com", legacyTestToken)
	_, err := f.Portal.Create(ctx, domain.Identity{
		Key:    "henry",
		Email:  "different@portal.example.com",
		Role:   domain.RoleUser,
		Active: true,
	})
	require.NoError(t, err)

	_, err = f.Translator.Translate(ctx,
		domain.Token{Value: legacyTestToken, Origin: domain.StoreLegacy},
		domain.StorePortal,
	)
	require.ErrorIs(t, err, domain.ErrIdentityConflict)
}
