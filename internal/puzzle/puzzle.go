// internal/puzzle/puzzle.go
//
// Daily puzzle records and their SQLite store.
// One puzzle per UTC calendar date; puzzles are immutable once created
// and never deleted. Dates are stored as YYYY-MM-DD strings so the
// unique constraint and ordering operate on calendar dates, not
// timestamps.

package puzzle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no puzzle matches a lookup.
var ErrNotFound = errors.New("puzzle not found")

// Puzzle is one daily challenge: a target card bound to a calendar date.
// CardID is never exposed to clients before the player's state is terminal.
type Puzzle struct {
	ID        string
	Date      string // YYYY-MM-DD, UTC
	CardID    string
	CreatedAt time.Time
}

// DateKey truncates a timestamp to its UTC calendar date (YYYY-MM-DD).
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new puzzle. The unique index on puzzle_date makes
// concurrent creation for the same date a no-op for the loser; callers
// re-read by date afterwards.
func (s *Store) Create(ctx context.Context, p Puzzle) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO puzzles (id, puzzle_date, card_id, created_at)
		VALUES (?,?,?,?)`,
		p.ID, p.Date, p.CardID, p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert puzzle: %w", err)
	}
	return nil
}

// ByID loads a puzzle by id, or ErrNotFound.
func (s *Store) ByID(ctx context.Context, id string) (Puzzle, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, puzzle_date, card_id, created_at FROM puzzles WHERE id=?`, id))
}

// ByDate loads the puzzle for a calendar date, or ErrNotFound.
func (s *Store) ByDate(ctx context.Context, date string) (Puzzle, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, puzzle_date, card_id, created_at FROM puzzles WHERE puzzle_date=?`, date))
}

// CurrentDate returns the date of the most recently activated puzzle
// whose date is <= today. ok is false when no puzzle has ever been
// activated; a store failure is surfaced as an error, never as a
// silent "no puzzle".
func (s *Store) CurrentDate(ctx context.Context, now time.Time) (date string, ok bool, err error) {
	var d sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT MAX(puzzle_date) FROM puzzles WHERE puzzle_date <= ?`, DateKey(now),
	).Scan(&d)
	if err != nil {
		return "", false, fmt.Errorf("query current puzzle date: %w", err)
	}
	if !d.Valid {
		return "", false, nil
	}
	return d.String, true, nil
}

// ActivatedOnOrBefore returns all puzzles with date <= today, ascending
// by date. The returned order is the authoritative day-index assignment.
func (s *Store) ActivatedOnOrBefore(ctx context.Context, now time.Time) ([]Puzzle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, puzzle_date, card_id, created_at
		FROM puzzles WHERE puzzle_date <= ? ORDER BY puzzle_date ASC`, DateKey(now),
	)
	if err != nil {
		return nil, fmt.Errorf("query puzzles: %w", err)
	}
	defer rows.Close()

	var out []Puzzle
	for rows.Next() {
		var p Puzzle
		var created string
		if err := rows.Scan(&p.ID, &p.Date, &p.CardID, &created); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) scanOne(row *sql.Row) (Puzzle, error) {
	var p Puzzle
	var created string
	err := row.Scan(&p.ID, &p.Date, &p.CardID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Puzzle{}, ErrNotFound
	}
	if err != nil {
		return Puzzle{}, fmt.Errorf("scan puzzle: %w", err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return p, nil
}
