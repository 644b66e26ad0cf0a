package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/teamdir/internal/roster"
)

const (
	prefViewMode = "view_mode"
	prefPageSize = "page_size"
)

// LoadPreferences returns the stored preferences. Missing or unreadable
// values fall back to roster.DefaultPreferences field by field.
func (s *Store) LoadPreferences(ctx context.Context) (roster.Preferences, error) {
	prefs := roster.DefaultPreferences()

	view, err := s.preference(ctx, prefViewMode)
	if err != nil {
		return prefs, err
	}
	if v, err := roster.ParseViewMode(view); err == nil {
		prefs.ViewMode = v
	}

	size, err := s.preference(ctx, prefPageSize)
	if err != nil {
		return prefs, err
	}
	if n, err := strconv.Atoi(size); err == nil && n > 0 {
		prefs.PageSize = n
	}

	return prefs, nil
}

// SavePreferences stores p, replacing earlier values.
func (s *Store) SavePreferences(ctx context.Context, p roster.Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preferences: %w", err)
	}
	defer tx.Rollback()

	values := [][2]string{
		{prefViewMode, string(p.ViewMode)},
		{prefPageSize, strconv.Itoa(p.PageSize)},
	}
	for _, kv := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO preferences (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, kv[0], kv[1])
		if err != nil {
			return fmt.Errorf("save preference %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}
	return nil
}

// preference returns the value stored under key, or "" if there is none.
func (s *Store) preference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read preference %s: %w", key, err)
	}
	return value, nil
}
