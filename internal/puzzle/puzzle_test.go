package puzzle

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/guygir/RifTrade-sub001/internal/cards"
	"github.com/guygir/RifTrade-sub001/internal/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedCard(t *testing.T, db *sql.DB, id string, collectible bool) {
	t.Helper()
	err := cards.Insert(context.Background(), db, cards.Card{
		ID: id, Name: "card " + id, SetCode: "Set1", Rarity: "COMMON",
		Region: "Ionia", Cost: 2, CardType: "Unit", Collectible: collectible,
	})
	if err != nil {
		t.Fatalf("seed card %s: %v", id, err)
	}
}

func mustCreate(t *testing.T, s *Store, id, date, cardID string) {
	t.Helper()
	err := s.Create(context.Background(), Puzzle{
		ID: id, Date: date, CardID: cardID, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create puzzle %s: %v", id, err)
	}
}

func TestCurrentDateEmpty(t *testing.T) {
	s := NewStore(setupDB(t))
	_, ok, err := s.CurrentDate(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("current date: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false with no puzzles")
	}
}

func TestCurrentDatePicksLatestActivated(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	seedCard(t, db, "c1", true)

	mustCreate(t, s, "p1", "2026-08-30", "c1")
	mustCreate(t, s, "p2", "2026-08-31", "c1")
	mustCreate(t, s, "p3", "2026-09-02", "c1") // future

	now := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	date, ok, err := s.CurrentDate(context.Background(), now)
	if err != nil || !ok {
		t.Fatalf("current date: ok=%v err=%v", ok, err)
	}
	if date != "2026-08-31" {
		t.Fatalf("date = %s, want 2026-08-31 (future puzzle must not leak)", date)
	}
}

func TestCurrentDateTruncatesTimestamps(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	seedCard(t, db, "c1", true)
	mustCreate(t, s, "p1", "2026-09-01", "c1")

	// Any wall-clock instant within the day resolves to the same date.
	for _, now := range []time.Time{
		time.Date(2026, 9, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 23, 59, 59, 0, time.UTC),
	} {
		date, ok, err := s.CurrentDate(context.Background(), now)
		if err != nil || !ok || date != "2026-09-01" {
			t.Fatalf("at %v: date=%s ok=%v err=%v", now, date, ok, err)
		}
	}
}

func TestByIDMissing(t *testing.T) {
	s := NewStore(setupDB(t))
	if _, err := s.ByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestActivatedOnOrBeforeOrdering(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	seedCard(t, db, "c1", true)

	// Insert out of order; listing must come back ascending by date.
	mustCreate(t, s, "p2", "2026-08-31", "c1")
	mustCreate(t, s, "p1", "2026-08-30", "c1")
	mustCreate(t, s, "p3", "2026-09-01", "c1")

	got, err := s.ActivatedOnOrBefore(context.Background(), time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2026-08-30", "2026-08-31", "2026-09-01"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Date != want[i] {
			t.Errorf("index %d: date = %s, want %s", i, p.Date, want[i])
		}
	}
}

func TestAssignerIsDeterministicAndIdempotent(t *testing.T) {
	db := setupDB(t)
	s := NewStore(db)
	catalog := cards.NewCatalog(db)
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		seedCard(t, db, id, true)
	}
	seedCard(t, db, "token1", false) // never eligible

	a := NewAssigner(s, catalog, "test_salt")
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	first, err := a.EnsureToday(context.Background(), now)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if first.CardID == "token1" {
		t.Fatal("assigner picked a non-collectible card")
	}

	// Second call the same day returns the existing puzzle unchanged.
	second, err := a.EnsureToday(context.Background(), now.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("re-assign: %v", err)
	}
	if second.ID != first.ID || second.CardID != first.CardID {
		t.Fatalf("second assignment %+v differs from first %+v", second, first)
	}
}

func TestCardIndexStableAcrossCalls(t *testing.T) {
	idx := cardIndex("2026-09-01", "salt", 100)
	for i := 0; i < 5; i++ {
		if got := cardIndex("2026-09-01", "salt", 100); got != idx {
			t.Fatalf("cardIndex changed between calls: %d vs %d", got, idx)
		}
	}
	if other := cardIndex("2026-09-02", "salt", 100); other == idx {
		// Not impossible, but with these inputs the fixture values differ.
		t.Logf("adjacent dates map to the same index (%d); acceptable but unexpected", idx)
	}
}
