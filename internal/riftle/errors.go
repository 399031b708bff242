// internal/riftle/errors.go
//
// Error taxonomy for the puzzle session boundary. Every storage or
// catalog failure is translated into one of these before leaving the
// service; raw storage errors never cross it.

package riftle

import "errors"

var (
	// ErrDataSourceUnavailable: backing store unreachable or erroring.
	// Retryable; no state was mutated.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	// ErrPuzzleUnavailable: no puzzle for today, or the referenced id is
	// not an activated puzzle. User-visible as "check back later".
	ErrPuzzleUnavailable = errors.New("puzzle unavailable")

	// ErrAlreadyCompleted: guess against a terminal state; rejected
	// without mutation.
	ErrAlreadyCompleted = errors.New("puzzle already completed")

	// ErrInvalidGuess: guessed card id does not resolve in the catalog;
	// rejected without consuming an attempt.
	ErrInvalidGuess = errors.New("invalid guess")

	// ErrConflict: the atomic guard detected a concurrent submission;
	// the caller retries the whole submission.
	ErrConflict = errors.New("concurrent update conflict")
)
