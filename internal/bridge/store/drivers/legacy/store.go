// Package legacy is the credential-store driver for the opaque-token system.
// Tokens are 40-hex-char keys persisted in a token table, one per user, with
// no expiry; a token is valid for exactly as long as its row exists.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/crossauth/bridge/internal/bridge/domain"
	"github.com/crossauth/bridge/internal/bridge/store"
	"github.com/crossauth/bridge/pkg/cryptox"
	"github.com/crossauth/bridge/pkg/idx"

	_ "modernc.org/sqlite"
)

// TokenKeyBytes is the raw size of an opaque token key (40 hex chars).
const TokenKeyBytes = 20

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const identityColumns = `u.id, u.username, u.email, u.display_name, u.role, u.is_active, u.created_at, u.updated_at`

// Validate resolves an opaque token key to its bound identity. Unknown keys
// fail with domain.ErrInvalidToken; the identity is returned even when
// inactive so callers can distinguish "disabled" from "invalid".
func (s *Store) Validate(ctx context.Context, token string) (domain.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`, t.created_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = ?`, token)

	var id domain.Identity
	var issuedAt time.Time
	if err := scanIdentity(row, &id, &issuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, err
	}

	id.SourceStore = domain.StoreLegacy
	return id, nil
}

// Lookup fetches an identity by username.
func (s *Store) Lookup(ctx context.Context, key string) (domain.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+identityColumns+`
		FROM users u
		WHERE u.username = ?`, key)

	var id domain.Identity
	if err := scanIdentity(row, &id, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Identity{}, store.ErrNotFound
		}
		return domain.Identity{}, err
	}

	id.SourceStore = domain.StoreLegacy
	return id, nil
}

// Create inserts a new user record with an unusable placeholder secret.
// Duplicate usernames map to store.ErrAlreadyExists so concurrent mirror
// creation can treat the race as success.
func (s *Store) Create(ctx context.Context, id domain.Identity) (domain.Identity, error) {
	secret, err := cryptox.NewUnusableSecret()
	if err != nil {
		return domain.Identity{}, err
	}

	now := time.Now().UTC()
	id.ID = idx.New().String()
	id.CreatedAt = now
	id.UpdatedAt = now
	id.SourceStore = domain.StoreLegacy

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, role, is_active, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.ID, id.Key, id.Email, id.DisplayName, string(id.Role), id.Active, secret, now, now)
	if err != nil {
		return domain.Identity{}, mapConstraint(err)
	}

	return id, nil
}

// Issue returns the identity's opaque token, minting one if it does not
// exist yet. One token per user, get-or-create, like the system it mirrors.
func (s *Store) Issue(ctx context.Context, id domain.Identity) (domain.Token, error) {
	var key string
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT t.key, t.created_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.username = ?`, id.Key).Scan(&key, &createdAt)
	if err == nil {
		return opaqueToken(key, id.Key, createdAt), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Token{}, err
	}

	userID := id.ID
	if userID == "" {
		existing, err := s.Lookup(ctx, id.Key)
		if err != nil {
			return domain.Token{}, err
		}
		userID = existing.ID
	}

	key, err = cryptox.GenerateHexToken(TokenKeyBytes)
	if err != nil {
		return domain.Token{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES (?, ?, ?)`, key, userID, now)
	if err != nil {
		// Lost a race against a concurrent Issue for the same user; the
		// winner's token is the token.
		if isConstraintViolation(err) {
			return s.Issue(ctx, id)
		}
		return domain.Token{}, err
	}

	return opaqueToken(key, id.Key, now), nil
}

// SeedToken installs a caller-chosen token key for a user. Test and
// bootstrap helper; the production path is Issue.
func (s *Store) SeedToken(ctx context.Context, username, key string) error {
	user, err := s.Lookup(ctx, username)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES (?, ?, ?)`, key, user.ID, now)
	return mapConstraint(err)
}

// SetActive flips a user's active flag.
func (s *Store) SetActive(ctx context.Context, username string, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = ?, updated_at = ? WHERE username = ?`,
		active, time.Now().UTC(), username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func opaqueToken(key, subject string, issuedAt time.Time) domain.Token {
	return domain.Token{
		Value:    key,
		Origin:   domain.StoreLegacy,
		Subject:  subject,
		IssuedAt: issuedAt,
		// No ExpiresAt: opaque tokens live until their row is deleted.
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner, id *domain.Identity, issuedAt *time.Time) error {
	var role string
	dest := []any{
		&id.ID, &id.Key, &id.Email, &id.DisplayName, &role,
		&id.Active, &id.CreatedAt, &id.UpdatedAt,
	}
	if issuedAt != nil {
		dest = append(dest, issuedAt)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	id.Role = domain.ParseRole(role)
	return nil
}

func mapConstraint(err error) error {
	if isConstraintViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
