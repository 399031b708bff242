// internal/httpserver/routes_riftle.go
//
// Handlers for the daily puzzle endpoints.
//   - GET  /riftle/status                → current puzzle status for the caller
//   - POST /riftle/guess                 → submit one guess (authenticated)
//   - GET  /riftle/analytics/daily-plays → day-indexed play-count series

package httpserver

import (
	"errors"
	"net/http"

	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

// handleStatus returns the caller's view of today's puzzle. Guests get
// an empty history; the answer appears only once the caller's state is
// terminal.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.sessions.CurrentPuzzle(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	playerID := ""
	if me, _ := r.Context().Value(playerCtxKey).(*authPlayer); me != nil {
		playerID = me.ID
	}

	view, err := s.sessions.GetPuzzleView(r.Context(), p.ID, playerID)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// guessReq is the request payload for POST /riftle/guess.
type guessReq struct {
	PuzzleID      string `json:"puzzleId"`
	GuessedCardID string `json:"guessedCardId"`
}

// handleGuess submits one guess for the authenticated player. A detected
// race is retried once before surfacing a conflict: a retried submission
// with the same card is idempotent from the player's perspective.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	me, _ := r.Context().Value(playerCtxKey).(*authPlayer)
	if me == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req guessReq
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "malformed request body")
		return
	}
	if req.PuzzleID == "" || req.GuessedCardID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "puzzleId and guessedCardId are required")
		return
	}

	view, err := s.sessions.SubmitGuess(r.Context(), me.ID, req.PuzzleID, req.GuessedCardID)
	if errors.Is(err, riftle.ErrConflict) {
		view, err = s.sessions.SubmitGuess(r.Context(), me.ID, req.PuzzleID, req.GuessedCardID)
	}
	if errors.Is(err, riftle.ErrAlreadyCompleted) {
		// No-op confirmation: attach the existing status.
		current, verr := s.sessions.GetPuzzleView(r.Context(), req.PuzzleID, me.ID)
		if verr != nil {
			writeSessionError(w, verr)
			return
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "already_completed",
			"message": "puzzle already completed",
			"status":  current,
		})
		return
	}
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDailyPlays returns the analytics series. Freshness is the
// aggregator's responsibility, so intermediaries must not cache.
func (s *Server) handleDailyPlays(w http.ResponseWriter, r *http.Request) {
	series, err := s.agg.DailyPlaySeries(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, series)
}
