package storage

import (
	"context"
	"fmt"

	"github.com/claude/fitforge/internal/training"
)

// upsertUserSQL keeps the stored display name when the caller has none.
const upsertUserSQL = `
	INSERT INTO users (login, display_name)
	VALUES ($1, $2)
	ON CONFLICT (login) DO UPDATE
		SET last_seen = NOW(),
		    display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name)
	RETURNING id`

// GetOrCreateUser returns the id for a login ("local" or a tailnet login),
// creating the user on first sight.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	if login == "" {
		return 0, fmt.Errorf("%w: empty login", training.ErrInvalidInput)
	}
	var id int
	if err := db.Pool.QueryRow(ctx, upsertUserSQL, login, displayName).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting user %s: %w", login, err)
	}
	return id, nil
}
