// internal/meta/meta.go
//
// Freshness check over the card-catalog snapshot timestamp. The
// snapshot importer writes meta.last_snapshot after each sync; health
// reporting consults it to flag a stale catalog.

package meta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const lastSnapshotKey = "last_snapshot"

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// TouchSnapshot records now as the last catalog snapshot time.
func (s *Store) TouchSnapshot(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		lastSnapshotKey, now.UTC().Format(time.RFC3339),
	)
	return err
}

// IsCacheValid reports whether the last snapshot is younger than maxAge.
// A missing timestamp counts as stale, not as an error.
func (s *Store) IsCacheValid(ctx context.Context, maxAge time.Duration) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, lastSnapshotKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot timestamp: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	return time.Since(ts) < maxAge, nil
}
