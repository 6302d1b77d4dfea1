package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/boxfleet/boxfleet/internal/model"
)

// APIKeyStore handles per-user API key persistence. Keys are stored as
// bcrypt hashes; the plaintext is only ever seen at registration time.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates a new APIKeyStore
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{db: DB}
}

// Put stores (or replaces) the key for a user.
func (s *APIKeyStore) Put(ctx context.Context, user, key string) error {
	if user == "" || key == "" {
		return model.Errorf(model.ErrInvalidRequest, "user and key must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash api key: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO api_keys (user, key_hash) VALUES (?, ?)
		ON CONFLICT(user) DO UPDATE SET key_hash = excluded.key_hash
	`, strings.ToLower(user), string(hash))
	if err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	return nil
}

// Verify checks a user/key pair against the stored hash. Unknown users and
// mismatched keys both report false without distinguishing the two.
func (s *APIKeyStore) Verify(ctx context.Context, user, key string) (bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT key_hash FROM api_keys WHERE user = ?
	`, strings.ToLower(user)).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query api key: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil, nil
}

// Delete removes a user's key.
func (s *APIKeyStore) Delete(ctx context.Context, user string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE user = ?`, strings.ToLower(user))
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}
