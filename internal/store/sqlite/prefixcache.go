package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/folio-eng/folio/internal/store"
)

var _ store.PrefixCache = (*Store)(nil)

// GetCachedPrefix looks up a memoized prefix by its content-addressed
// key.
func (s *Store) GetCachedPrefix(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefix_cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: fetching cached prefix: %w", err)
	}
	return value, true, nil
}

// PutCachedPrefix stores or replaces a memoized prefix, upserting on
// key conflict.
func (s *Store) PutCachedPrefix(ctx context.Context, key, value, metaJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefix_cache (key, value, meta, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			meta       = excluded.meta,
			created_at = excluded.created_at
	`, key, value, metaJSON, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite: storing cached prefix: %w", err)
	}
	return nil
}
