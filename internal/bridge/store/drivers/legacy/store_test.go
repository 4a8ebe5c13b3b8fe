package legacy

import (
	"context"
	"testing"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, username string) domain.Identity {
	t.Helper()

	id, err := s.Create(context.Background(), domain.Identity{
		Key:         username,
		Email:       username + "@example.com",
		DisplayName: username,
		Role:        domain.RoleUser,
		Active:      true,
	})
	require.NoError(t, err)
	return id
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := seedUser(t, s, "alice")
	require.NotEmpty(t, created.ID)
	require.Equal(t, domain.StoreLegacy, created.SourceStore)

	got, err := s.Lookup(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "alice@example.com", got.Email)
	require.True(t, got.Active)
}

func TestLookupUnknownUser(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Lookup(context.Background(), "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedUser(t, s, "alice")

	_, err := s.Create(ctx, domain.Identity{Key: "alice", Active: true})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestIssueIsGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := seedUser(t, s, "bob")

	first, err := s.Issue(ctx, id)
	require.NoError(t, err)
	require.Len(t, first.Value, 2*TokenKeyBytes)
	require.Equal(t, domain.StoreLegacy, first.Origin)
	require.True(t, first.ExpiresAt.IsZero(), "opaque tokens have no expiry")

	second, err := s.Issue(ctx, id)
	require.NoError(t, err)
	require.Equal(t, first.Value, second.Value)
}

func TestValidateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := seedUser(t, s, "carol")
	tok, err := s.Issue(ctx, id)
	require.NoError(t, err)

	got, err := s.Validate(ctx, tok.Value)
	require.NoError(t, err)
	require.Equal(t, "carol", got.Key)
	require.Equal(t, domain.StoreLegacy, got.SourceStore)
}

func TestValidateUnknownToken(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Validate(context.Background(), "0000000000000000000000000000000000000000")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidateReturnsInactiveIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := seedUser(t, s, "dave")
	tok, err := s.Issue(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.SetActive(ctx, "dave", false))

	// The driver reports the identity as-is; policy lives above it.
	got, err := s.Validate(ctx, tok.Value)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestSeedToken(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedUser(t, s, "erin")
	const key = "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"
	require.NoError(t, s.SeedToken(ctx, "erin", key))

	got, err := s.Validate(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "erin", got.Key)

	// One token per user.
	err = s.SeedToken(ctx, "erin", "aaaa000000000000000000000000000000000000")
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestSetActiveUnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.SetActive(context.Background(), "ghost", false)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRoleDefaultsSafely(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// A row with an unknown role string must not escalate privileges.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, role, is_active, password_hash, created_at, updated_at)
		VALUES ('x', 'weird', '', '', 'superuser', 1, 'h', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	got, err := s.Lookup(ctx, "weird")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, got.Role)
}
