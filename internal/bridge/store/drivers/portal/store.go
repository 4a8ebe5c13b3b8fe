// Package portal is the credential-store driver for the JWT-based system.
// Portal tokens are HS256 JWTs signed with a shared secret; validation
// re-checks the subject's user row so a token dies when its account does.
package portal

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

	"github.com/golang-jwt/jwt/v5"

	_ "modernc.org/sqlite"
)

// DefaultTokenTTL matches the portal system's own access-token lifetime.
const DefaultTokenTTL = 24 * time.Hour

type Store struct {
	db     *sql.DB
	dsn    string
	secret []byte
	ttl    time.Duration
}

// claims is the portal's native token shape.
type claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func NewStore(dsn string, secret []byte, ttl time.Duration) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("portal: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn, secret: secret, ttl: ttl}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Validate parses and verifies a portal JWT, then resolves the subject
// against the user table. Both a bad signature and a vanished subject fail
// with domain.ErrInvalidToken; expiry fails closed the same way.
func (s *Store) Validate(ctx context.Context, token string) (domain.Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	id, err := s.Lookup(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, domain.ErrInvalidToken
		}
		return domain.Identity{}, err
	}

	return id, nil
}

// Lookup fetches an identity by username.
func (s *Store) Lookup(ctx context.Context, key string) (domain.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, display_name, role, is_active, created_at, updated_at
		FROM users
		WHERE username = ?`, key)

	var id domain.Identity
	var role string
	err := row.Scan(
		&id.ID, &id.Key, &id.Email, &id.DisplayName, &role,
		&id.Active, &id.CreatedAt, &id.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Identity{}, store.ErrNotFound
		}
		return domain.Identity{}, err
	}

	id.Role = domain.ParseRole(role)
	id.SourceStore = domain.StorePortal
	return id, nil
}

// Create inserts a new user record with an unusable placeholder secret.
// Duplicate usernames map to store.ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, id domain.Identity) (domain.Identity, error) {
	secret, err := cryptox.NewUnusableSecret()
	if err != nil {
		return domain.Identity{}, err
	}

	now := time.Now().UTC()
	id.ID = idx.New().String()
	id.CreatedAt = now
	id.UpdatedAt = now
	id.SourceStore = domain.StorePortal

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, display_name, role, is_active, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.ID, id.Key, id.Email, id.DisplayName, string(id.Role), id.Active, secret, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.Identity{}, store.ErrAlreadyExists
		}
		return domain.Identity{}, err
	}

	return id, nil
}

// Issue mints a fresh portal JWT for the identity. Every call produces a
// new token; nothing is persisted, validity follows the user row.
func (s *Store) Issue(ctx context.Context, id domain.Identity) (domain.Token, error) {
	now := time.Now().UTC()
	exp := now.Add(s.ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: id.Email,
		Role:  string(id.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{
		Value:     signed,
		Origin:    domain.StorePortal,
		Subject:   id.Key,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
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
