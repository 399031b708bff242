package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guygir/RifTrade-sub001/internal/analytics"
	"github.com/guygir/RifTrade-sub001/internal/cards"
	"github.com/guygir/RifTrade-sub001/internal/config"
	"github.com/guygir/RifTrade-sub001/internal/database"
	"github.com/guygir/RifTrade-sub001/internal/guess"
	"github.com/guygir/RifTrade-sub001/internal/meta"
	"github.com/guygir/RifTrade-sub001/internal/puzzle"
	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		ClientOrigin:      "http://localhost:5173",
		JWTSecret:         "test_secret",
		JWTExpireDays:     1,
		CookieName:        "riftle_token",
		MaxGuesses:        6,
		AnalyticsCacheTTL: 0,
	}
}

// setupServer builds a full server over an in-memory database with 10
// seeded cards and today's puzzle targeting c0.
func setupServer(t *testing.T) (*Server, *sql.DB) {
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

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		err := cards.Insert(ctx, db, cards.Card{
			ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("card %d", i),
			SetCode: "Set1", Rarity: "COMMON", Region: "Ionia",
			Cost: i, CardType: "Unit", Collectible: true,
		})
		if err != nil {
			t.Fatalf("seed card: %v", err)
		}
	}

	puzzles := puzzle.NewStore(db)
	err = puzzles.Create(ctx, puzzle.Puzzle{
		ID: "today", Date: puzzle.DateKey(testNow), CardID: "c0", CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("create puzzle: %v", err)
	}

	guesses := guess.NewStore(db)
	cfg := testConfig()
	sessions := riftle.NewService(puzzles, guesses, cards.NewCatalog(db), cfg.MaxGuesses)
	sessions.SetClock(func() time.Time { return testNow })
	agg := analytics.NewAggregator(puzzles, guesses, cfg.AnalyticsCacheTTL)
	agg.SetClock(func() time.Time { return testNow })

	return New(cfg, db, sessions, agg, meta.NewStore(db)), db
}

// signupPlayer registers a player and returns the auth cookie.
func signupPlayer(t *testing.T, s *Server, username string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "password123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "riftle_token" {
			return c
		}
	}
	t.Fatal("signup set no auth cookie")
	return nil
}

func submitGuess(t *testing.T, s *Server, cookie *http.Cookie, puzzleID, cardID string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"puzzleId": puzzleID, "guessedCardId": cardID})
	req := httptest.NewRequest(http.MethodPost, "/riftle/guess", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestGuestStatus(t *testing.T) {
	s, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/riftle/status", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view riftle.PuzzleView
	json.NewDecoder(w.Body).Decode(&view)
	if view.PuzzleID != "today" || view.PuzzleDate != "2026-09-01" {
		t.Fatalf("view = %+v", view)
	}
	if view.AnswerCardID != "" {
		t.Fatal("answer leaked to guest")
	}
	if view.GuessesUsed != 0 || len(view.GuessHistory) != 0 {
		t.Fatal("guest received server-persisted state")
	}
}

func TestGuessRequiresAuth(t *testing.T) {
	s, _ := setupServer(t)

	body, _ := json.Marshal(map[string]string{"puzzleId": "today", "guessedCardId": "c1"})
	req := httptest.NewRequest(http.MethodPost, "/riftle/guess", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestGuessFlowToSolve(t *testing.T) {
	s, _ := setupServer(t)
	cookie := signupPlayer(t, s, "maria")

	w := submitGuess(t, s, cookie, "today", "c3")
	if w.Code != http.StatusOK {
		t.Fatalf("wrong guess: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view riftle.PuzzleView
	json.NewDecoder(w.Body).Decode(&view)
	if view.GuessesUsed != 1 || view.IsSolved {
		t.Fatalf("after wrong guess: %+v", view)
	}
	if view.GuessHistory[0].Feedback.Cost != guess.MarkLower {
		t.Errorf("cost mark = %q, want lower (target costs 0, guess costs 3)", view.GuessHistory[0].Feedback.Cost)
	}

	w = submitGuess(t, s, cookie, "today", "c0")
	json.NewDecoder(w.Body).Decode(&view)
	if !view.IsSolved || view.AnswerCardID != "c0" {
		t.Fatalf("after winning guess: %+v", view)
	}

	// Status now reflects the terminal state, including the reveal.
	req := httptest.NewRequest(http.MethodGet, "/riftle/status", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	json.NewDecoder(rec.Body).Decode(&view)
	if !view.IsSolved || view.AnswerCardID != "c0" || view.GuessesUsed != 2 {
		t.Fatalf("terminal status: %+v", view)
	}
}

func TestGuessAfterCompletionConflicts(t *testing.T) {
	s, _ := setupServer(t)
	cookie := signupPlayer(t, s, "maria")

	submitGuess(t, s, cookie, "today", "c0")

	w := submitGuess(t, s, cookie, "today", "c1")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error  string             `json:"error"`
		Status *riftle.PuzzleView `json:"status"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error != "already_completed" {
		t.Fatalf("error kind = %q", resp.Error)
	}
	if resp.Status == nil || !resp.Status.IsSolved {
		t.Fatalf("no-op confirmation should attach existing status: %+v", resp.Status)
	}
}

func TestInvalidGuessKind(t *testing.T) {
	s, _ := setupServer(t)
	cookie := signupPlayer(t, s, "maria")

	w := submitGuess(t, s, cookie, "today", "no-such-card")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["error"] != "invalid_guess" {
		t.Fatalf("error kind = %q", resp["error"])
	}
}

func TestStatusWithoutPuzzle(t *testing.T) {
	s, db := setupServer(t)
	if _, err := db.Exec(`DELETE FROM puzzles`); err != nil {
		t.Fatalf("clear puzzles: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/riftle/status", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["error"] != "puzzle_unavailable" {
		t.Fatalf("error kind = %q", resp["error"])
	}
}

func TestDailyPlaysEndpoint(t *testing.T) {
	s, _ := setupServer(t)

	// Two players, one guess each.
	for _, name := range []string{"maria", "jose"} {
		cookie := signupPlayer(t, s, name)
		if w := submitGuess(t, s, cookie, "today", "c2"); w.Code != http.StatusOK {
			t.Fatalf("guess as %s: %d", name, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/riftle/analytics/daily-plays", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control = %q, want no-store", cc)
	}
	var series analytics.Series
	json.NewDecoder(w.Body).Decode(&series)
	if len(series.Points) != 1 || series.Points[0].Plays != 2 {
		t.Fatalf("series = %+v, want one point with plays=2", series)
	}
	if series.Points[0].Day != 0 {
		t.Fatalf("day index = %d, want 0", series.Points[0].Day)
	}
}

func TestHealth(t *testing.T) {
	s, db := setupServer(t)
	if err := meta.NewStore(db).TouchSnapshot(context.Background(), time.Now()); err != nil {
		t.Fatalf("touch snapshot: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["ok"] != true || resp["catalogFresh"] != true {
		t.Fatalf("health = %+v", resp)
	}
}
