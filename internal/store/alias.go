package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/boxfleet/boxfleet/internal/model"
)

// AliasStore handles image alias persistence. Aliases are scoped per user;
// two users may point the same alias at different images.
type AliasStore struct {
	db *sql.DB
}

// NewAliasStore creates a new AliasStore
func NewAliasStore() *AliasStore {
	return &AliasStore{db: DB}
}

// Create registers an alias for a user. Re-registering an alias with the
// identical image reference is a no-op; pointing it elsewhere is a conflict.
func (s *AliasStore) Create(ctx context.Context, user, alias, imageID string) (*model.ImageAlias, error) {
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	if _, err := name.ParseReference(imageID); err != nil {
		return nil, model.Errorf(model.ErrInvalidRequest, "invalid image reference %q: %v", imageID, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO image_aliases (user, alias, image_id) VALUES (?, ?, ?)
	`, user, alias, imageID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			existing, gerr := s.Resolve(ctx, user, alias)
			if gerr == nil && existing != nil && existing.ImageID == imageID {
				return existing, nil
			}
			return nil, model.Errorf(model.ErrConflict, "image alias %q already exists", alias)
		}
		return nil, fmt.Errorf("failed to insert image alias: %w", err)
	}

	return &model.ImageAlias{Alias: alias, ImageID: imageID, User: user}, nil
}

// Resolve maps an alias to its image reference for one user. Returns nil
// when the alias is unknown.
func (s *AliasStore) Resolve(ctx context.Context, user, alias string) (*model.ImageAlias, error) {
	a := &model.ImageAlias{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user, alias, image_id FROM image_aliases WHERE user = ? AND alias = ?
	`, user, alias).Scan(&a.User, &a.Alias, &a.ImageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query image alias: %w", err)
	}
	return a, nil
}

// List returns a user's aliases sorted by alias name.
func (s *AliasStore) List(ctx context.Context, user string) ([]model.ImageAlias, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user, alias, image_id FROM image_aliases WHERE user = ? ORDER BY alias
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list image aliases: %w", err)
	}
	defer rows.Close()

	var aliases []model.ImageAlias
	for rows.Next() {
		var a model.ImageAlias
		if err := rows.Scan(&a.User, &a.Alias, &a.ImageID); err != nil {
			return nil, fmt.Errorf("failed to scan image alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// Delete removes a user's alias. Deleting an unknown alias is a not-found
// error so the HTTP layer can answer 404.
func (s *AliasStore) Delete(ctx context.Context, user, alias string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM image_aliases WHERE user = ? AND alias = ?
	`, user, alias)
	if err != nil {
		return fmt.Errorf("failed to delete image alias: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return model.Errorf(model.ErrNotFound, "image alias %q", alias)
	}
	return nil
}

func validateAlias(alias string) error {
	if alias == "" {
		return model.Errorf(model.ErrInvalidRequest, "alias must not be empty")
	}
	for _, r := range alias {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '.' || r == '_' {
			continue
		}
		return model.Errorf(model.ErrInvalidRequest, "alias %q contains invalid character %q", alias, r)
	}
	return nil
}
