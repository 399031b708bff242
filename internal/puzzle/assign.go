// internal/puzzle/assign.go
//
// Deterministic daily puzzle assignment.
// Selection is HMAC(salt, YYYY-MM-DD) % len(eligible cards), so every
// instance of the service picks the same card for the same date without
// coordination. The unique date constraint makes concurrent assignment
// idempotent.

package puzzle

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/guygir/RifTrade-sub001/internal/cards"
)

// cardIndex returns a deterministic index for a date using
// HMAC-SHA256(salt, YYYY-MM-DD) % n.
func cardIndex(date string, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date))
	sum := h.Sum(nil)
	// first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Assigner creates the puzzle for a date when none exists yet.
type Assigner struct {
	store   *Store
	catalog cards.Catalog
	salt    string
}

func NewAssigner(store *Store, catalog cards.Catalog, salt string) *Assigner {
	return &Assigner{store: store, catalog: catalog, salt: salt}
}

// EnsureToday makes sure a puzzle exists for now's UTC date and returns it.
// Safe to call from multiple goroutines or processes.
func (a *Assigner) EnsureToday(ctx context.Context, now time.Time) (Puzzle, error) {
	date := DateKey(now)

	if p, err := a.store.ByDate(ctx, date); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Puzzle{}, err
	}

	eligible, err := a.catalog.Eligible(ctx)
	if err != nil {
		return Puzzle{}, fmt.Errorf("load eligible cards: %w", err)
	}
	if len(eligible) == 0 {
		return Puzzle{}, fmt.Errorf("no eligible cards to assign for %s", date)
	}

	pick := eligible[cardIndex(date, a.salt, len(eligible))]
	p := Puzzle{
		ID:        uuid.NewString(),
		Date:      date,
		CardID:    pick.ID,
		CreatedAt: now.UTC(),
	}
	if err := a.store.Create(ctx, p); err != nil {
		return Puzzle{}, err
	}

	// Re-read: a concurrent assigner may have won the insert.
	p, err = a.store.ByDate(ctx, date)
	if err != nil {
		return Puzzle{}, err
	}
	log.Info().Str("date", date).Str("puzzleId", p.ID).Msg("daily puzzle assigned")
	return p, nil
}
