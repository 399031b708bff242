// internal/riftle/service.go
//
// Puzzle session service: orchestrates one player's interaction with a
// daily puzzle. Loads state, validates and records guesses, enforces
// the attempt bound, and decides solved/failed.
//
// The target card's identity appears in a view only once the state is
// terminal (reveal-on-completion); before that, only cosmetic metadata
// (set code, rarity) is exposed.

package riftle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guygir/RifTrade-sub001/internal/cards"
	"github.com/guygir/RifTrade-sub001/internal/guess"
	"github.com/guygir/RifTrade-sub001/internal/puzzle"
)

// CardMetadata is the non-identifying hint exposed pre-solve.
type CardMetadata struct {
	SetCode string `json:"setCode"`
	Rarity  string `json:"rarity"`
}

// PuzzleView is the client-facing status of one player's puzzle.
// AnswerCardID is empty until the state is terminal.
type PuzzleView struct {
	PuzzleID     string        `json:"puzzleId"`
	PuzzleDate   string        `json:"puzzleDate"`
	IsSolved     bool          `json:"isSolved"`
	IsFailed     bool          `json:"isFailed"`
	GuessesUsed  int           `json:"guessesUsed"`
	MaxGuesses   int           `json:"maxGuesses"`
	GuessHistory []guess.Entry `json:"guessHistory"`
	CardMetadata CardMetadata  `json:"cardMetadata"`
	AnswerCardID string        `json:"answerCardId,omitempty"`
}

// Service wires the calendar, catalog, and guess store into the two
// session operations. All dependencies are injected; the service holds
// no mutable state of its own.
type Service struct {
	puzzles    *puzzle.Store
	guesses    *guess.Store
	catalog    cards.Catalog
	maxGuesses int
	now        func() time.Time
}

func NewService(puzzles *puzzle.Store, guesses *guess.Store, catalog cards.Catalog, maxGuesses int) *Service {
	return &Service{
		puzzles:    puzzles,
		guesses:    guesses,
		catalog:    catalog,
		maxGuesses: maxGuesses,
		now:        time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CurrentPuzzle resolves today's active puzzle: the most recently
// activated one with date <= today. ErrPuzzleUnavailable when none has
// ever been activated.
func (s *Service) CurrentPuzzle(ctx context.Context) (puzzle.Puzzle, error) {
	date, ok, err := s.puzzles.CurrentDate(ctx, s.now())
	if err != nil {
		return puzzle.Puzzle{}, storeErr(err)
	}
	if !ok {
		return puzzle.Puzzle{}, ErrPuzzleUnavailable
	}
	p, err := s.puzzles.ByDate(ctx, date)
	if errors.Is(err, puzzle.ErrNotFound) {
		return puzzle.Puzzle{}, ErrPuzzleUnavailable
	}
	if err != nil {
		return puzzle.Puzzle{}, storeErr(err)
	}
	return p, nil
}

// GetPuzzleView returns the player's status for a puzzle.
// playerID == "" means unauthenticated: no server-side state exists, so
// the view carries an empty history and zero guesses used.
func (s *Service) GetPuzzleView(ctx context.Context, puzzleID, playerID string) (*PuzzleView, error) {
	p, err := s.activePuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	view, err := s.baseView(ctx, p)
	if err != nil {
		return nil, err
	}
	if playerID == "" {
		return view, nil
	}

	st, err := s.guesses.Get(ctx, playerID, p.ID)
	if errors.Is(err, guess.ErrNotFound) {
		return view, nil // no attempts yet
	}
	if err != nil {
		return nil, storeErr(err)
	}
	s.applyState(view, st, p)
	return view, nil
}

// SubmitGuess validates and records one guess, enforcing the attempt
// bound under the store's atomic guard. The updated view is returned;
// once terminal it reveals the target card.
func (s *Service) SubmitGuess(ctx context.Context, playerID, puzzleID, guessedCardID string) (*PuzzleView, error) {
	p, err := s.activePuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	// Resolve the guessed card first: an unknown id must not consume an
	// attempt or touch state.
	guessed, err := s.catalog.Get(ctx, guessedCardID)
	if errors.Is(err, cards.ErrUnknownCard) {
		return nil, ErrInvalidGuess
	}
	if err != nil {
		return nil, storeErr(err)
	}

	target, err := s.catalog.Get(ctx, p.CardID)
	if err != nil {
		return nil, storeErr(err)
	}

	st, err := s.guesses.Get(ctx, playerID, p.ID)
	switch {
	case errors.Is(err, guess.ErrNotFound):
		st = &guess.State{PlayerID: playerID, PuzzleID: p.ID}
	case err != nil:
		return nil, storeErr(err)
	}
	if st.Terminal() {
		return nil, ErrAlreadyCompleted
	}

	prevUsed := st.GuessesUsed
	st.History = append(st.History, guess.Entry{
		CardID:   guessedCardID,
		Feedback: guess.Compare(guessed, target),
	})
	st.GuessesUsed++
	if guessedCardID == target.ID {
		st.Solved = true
	} else if st.GuessesUsed >= s.maxGuesses {
		st.Failed = true
	}

	if prevUsed == 0 && st.CreatedAt.IsZero() {
		err = s.guesses.Create(ctx, st)
	} else {
		err = s.guesses.UpdateGuarded(ctx, st, prevUsed)
	}
	if errors.Is(err, guess.ErrConflict) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, storeErr(err)
	}

	if st.Terminal() {
		log.Info().Str("player", playerID).Str("puzzle", p.ID).
			Bool("solved", st.Solved).Int("guesses", st.GuessesUsed).
			Msg("puzzle completed")
	}

	view, err := s.baseView(ctx, p)
	if err != nil {
		return nil, err
	}
	s.applyState(view, st, p)
	return view, nil
}

// activePuzzle loads the puzzle and rejects ids that do not correspond
// to an activated (today-or-earlier) puzzle.
func (s *Service) activePuzzle(ctx context.Context, puzzleID string) (puzzle.Puzzle, error) {
	p, err := s.puzzles.ByID(ctx, puzzleID)
	if errors.Is(err, puzzle.ErrNotFound) {
		return puzzle.Puzzle{}, ErrPuzzleUnavailable
	}
	if err != nil {
		return puzzle.Puzzle{}, storeErr(err)
	}
	if p.Date > puzzle.DateKey(s.now()) {
		return puzzle.Puzzle{}, ErrPuzzleUnavailable
	}
	return p, nil
}

func (s *Service) baseView(ctx context.Context, p puzzle.Puzzle) (*PuzzleView, error) {
	target, err := s.catalog.Get(ctx, p.CardID)
	if err != nil {
		return nil, storeErr(err)
	}
	return &PuzzleView{
		PuzzleID:     p.ID,
		PuzzleDate:   p.Date,
		MaxGuesses:   s.maxGuesses,
		GuessHistory: []guess.Entry{},
		CardMetadata: CardMetadata{SetCode: target.SetCode, Rarity: target.Rarity},
	}, nil
}

func (s *Service) applyState(view *PuzzleView, st *guess.State, p puzzle.Puzzle) {
	view.IsSolved = st.Solved
	view.IsFailed = st.Failed
	view.GuessesUsed = st.GuessesUsed
	view.GuessHistory = st.History
	if st.Terminal() {
		view.AnswerCardID = p.CardID
	}
}

func storeErr(err error) error {
	log.Error().Err(err).Msg("backing store failure")
	return ErrDataSourceUnavailable
}
