// internal/guess/store.go
//
// SQLite store for guess states.
// One row per (player, puzzle), enforced by the composite primary key.
// Mutation happens through Create (first guess) and UpdateGuarded
// (subsequent guesses); the guard on guesses_used serializes concurrent
// submissions from the same player so no update is ever lost and the
// attempt bound cannot be exceeded.
//
// History documents are validated on read and fail closed: a row whose
// JSON does not match the schema, whose length disagrees with
// guesses_used, or which claims both solved and failed is rejected.

package guess

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound means the player has no record for the puzzle yet.
	ErrNotFound = errors.New("guess state not found")

	// ErrConflict means a concurrent submission won the row; the caller
	// retries the whole submission.
	ErrConflict = errors.New("concurrent guess state update")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get loads a player's state for a puzzle, or ErrNotFound.
func (s *Store) Get(ctx context.Context, playerID, puzzleID string) (*State, error) {
	var st State
	var solved, failed int
	var history string
	var created, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT player_id, puzzle_id, guesses_used, solved, failed, history_json, created_at, updated_at
		FROM guess_states WHERE player_id=? AND puzzle_id=?`,
		playerID, puzzleID,
	).Scan(&st.PlayerID, &st.PuzzleID, &st.GuessesUsed, &solved, &failed, &history, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load guess state: %w", err)
	}
	st.Solved = solved == 1
	st.Failed = failed == 1
	st.CreatedAt, _ = time.Parse(time.RFC3339, created)
	st.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	if err := decodeHistory(history, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts the state after a player's first guess.
// A concurrent first guess loses to the primary key and gets ErrConflict.
func (s *Store) Create(ctx context.Context, st *State) error {
	history, err := encodeHistory(st)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO guess_states (player_id, puzzle_id, guesses_used, solved, failed, history_json, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		st.PlayerID, st.PuzzleID, st.GuessesUsed, b2i(st.Solved), b2i(st.Failed), history, now, now,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert guess state: %w", err)
	}
	return nil
}

// UpdateGuarded writes the state only if the stored guesses_used still
// equals expectedUsed and the row is not already terminal. Zero rows
// affected means another submission got there first: ErrConflict.
func (s *Store) UpdateGuarded(ctx context.Context, st *State, expectedUsed int) error {
	history, err := encodeHistory(st)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE guess_states
		SET guesses_used=?, solved=?, failed=?, history_json=?, updated_at=?
		WHERE player_id=? AND puzzle_id=? AND guesses_used=? AND solved=0 AND failed=0`,
		st.GuessesUsed, b2i(st.Solved), b2i(st.Failed), history,
		time.Now().UTC().Format(time.RFC3339),
		st.PlayerID, st.PuzzleID, expectedUsed,
	)
	if err != nil {
		return fmt.Errorf("update guess state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// CountDistinctPlayers returns, per puzzle id, the number of distinct
// players with at least one guess. Used by the analytics aggregator.
func (s *Store) CountDistinctPlayers(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_id, COUNT(DISTINCT player_id)
		FROM guess_states WHERE guesses_used >= 1
		GROUP BY puzzle_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("count plays: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func encodeHistory(st *State) (string, error) {
	if len(st.History) != st.GuessesUsed {
		return "", fmt.Errorf("guess state %s/%s: history length %d != guesses used %d",
			st.PlayerID, st.PuzzleID, len(st.History), st.GuessesUsed)
	}
	if st.Solved && st.Failed {
		return "", fmt.Errorf("guess state %s/%s: solved and failed both set", st.PlayerID, st.PuzzleID)
	}
	b, err := json.Marshal(st.History)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

// decodeHistory parses the stored history document strictly.
// Unexpected shape rejects the row instead of silently defaulting.
func decodeHistory(raw string, st *State) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	var history []Entry
	if err := dec.Decode(&history); err != nil {
		return fmt.Errorf("guess state %s/%s: malformed history document: %w", st.PlayerID, st.PuzzleID, err)
	}
	if len(history) != st.GuessesUsed {
		return fmt.Errorf("guess state %s/%s: history length %d != guesses used %d",
			st.PlayerID, st.PuzzleID, len(history), st.GuessesUsed)
	}
	if st.Solved && st.Failed {
		return fmt.Errorf("guess state %s/%s: solved and failed both set", st.PlayerID, st.PuzzleID)
	}
	st.History = history
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
