// internal/guess/types.go
//
// Core types for the guess state engine.
// Defines:
//   - Mark: per-attribute result of comparing a guessed card to the target.
//   - Feedback: the full attribute comparison for one guess.
//   - Entry: one recorded guess (card + feedback).
//   - State: a player's attempt record against one puzzle.

package guess

import "time"

// Mark represents the evaluation result for a single card attribute.
// Possible values:
//   - "hit":    attribute matches the target exactly.
//   - "miss":   attribute does not match.
//   - "higher": numeric attribute — the target's value is higher than the guess.
//   - "lower":  numeric attribute — the target's value is lower than the guess.
type Mark string

const (
	MarkHit    Mark = "hit"
	MarkMiss   Mark = "miss"
	MarkHigher Mark = "higher"
	MarkLower  Mark = "lower"
)

// Feedback is the deterministic comparison of one guessed card against
// the puzzle's target card. It never carries the target's identity.
type Feedback struct {
	Correct  bool `json:"correct"`
	SetCode  Mark `json:"setCode"`
	Rarity   Mark `json:"rarity"`
	Region   Mark `json:"region"`
	CardType Mark `json:"cardType"`
	Cost     Mark `json:"cost"`
}

// Entry is one guess in a player's history.
type Entry struct {
	CardID   string   `json:"cardId"`
	Feedback Feedback `json:"feedback"`
}

// State holds a player's attempt record against one puzzle.
// Invariants maintained by the store:
//   - GuessesUsed == len(History)
//   - GuessesUsed never exceeds the configured bound
//   - Solved and Failed are mutually exclusive; either one is terminal
type State struct {
	PlayerID    string
	PuzzleID    string
	GuessesUsed int
	Solved      bool
	Failed      bool
	History     []Entry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Terminal reports whether the record accepts no further guesses.
func (s *State) Terminal() bool {
	return s.Solved || s.Failed
}
