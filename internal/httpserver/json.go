package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/guygir/RifTrade-sub001/internal/riftle"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": msg})
}

// writeSessionError maps the session/aggregator error taxonomy onto
// stable HTTP error kinds. Gameplay rejections (already completed,
// invalid guess) are expected outcomes, not system failures, and are
// not logged as errors.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, riftle.ErrPuzzleUnavailable):
		writeError(w, http.StatusNotFound, "puzzle_unavailable", "no active puzzle; check back later")
	case errors.Is(err, riftle.ErrInvalidGuess):
		writeError(w, http.StatusBadRequest, "invalid_guess", "guessed card does not exist")
	case errors.Is(err, riftle.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "already_completed", "puzzle already completed")
	case errors.Is(err, riftle.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "concurrent submission detected; retry")
	case errors.Is(err, riftle.ErrDataSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "data_source_unavailable", "temporary failure; retry")
	default:
		log.Error().Err(err).Msg("unhandled session error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
