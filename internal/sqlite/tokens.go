package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ganot/ctxmarket-mcp/internal/repository"
)

// TokenStore resolves bearer tokens to user logins. Tokens are stored
// only as SHA-256 hashes.
type TokenStore struct {
	db *DB
}

// NewTokenStore creates a new TokenStore
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db}
}

// ResolveUser maps a bearer token to the login it was issued for.
func (s *TokenStore) ResolveUser(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var login string
	err := s.db.QueryRowContext(ctx,
		`SELECT login FROM api_tokens WHERE token_hash = ?`, hash).Scan(&login)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving token: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE api_tokens SET last_used = CURRENT_TIMESTAMP WHERE token_hash = ?`, hash)
	if err != nil {
		return "", fmt.Errorf("touching token: %w", err)
	}
	return login, nil
}

// EnsureUser creates the user row if it doesn't exist.
func (s *TokenStore) EnsureUser(ctx context.Context, login, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (login, name) VALUES (?, ?)
		 ON CONFLICT(login) DO NOTHING`, login, name)
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

// IssueToken mints a new random token for login and returns its
// plaintext form, which is never stored.
func (s *TokenStore) IssueToken(ctx context.Context, login, description string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_tokens (token_hash, login, description) VALUES (?, ?, ?)`,
		hashToken(token), login, description)
	if err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// RevokeToken removes a token by its plaintext form.
func (s *TokenStore) RevokeToken(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM api_tokens WHERE token_hash = ?`, hashToken(token))
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking revocation: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
