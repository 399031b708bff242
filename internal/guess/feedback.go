// internal/guess/feedback.go
//
// Feedback scoring for a single guess. Compare is a pure function of
// (guessed card, target card): same inputs always produce the same
// feedback, no state is read or written.

package guess

import "github.com/guygir/RifTrade-sub001/internal/cards"

// Compare scores a guessed card against the target card.
// Identity equality decides Correct; attribute marks are cosmetic hints.
func Compare(guessed, target cards.Card) Feedback {
	fb := Feedback{
		Correct:  guessed.ID == target.ID,
		SetCode:  eq(guessed.SetCode, target.SetCode),
		Rarity:   eq(guessed.Rarity, target.Rarity),
		Region:   eq(guessed.Region, target.Region),
		CardType: eq(guessed.CardType, target.CardType),
	}
	switch {
	case guessed.Cost == target.Cost:
		fb.Cost = MarkHit
	case guessed.Cost < target.Cost:
		fb.Cost = MarkHigher
	default:
		fb.Cost = MarkLower
	}
	return fb
}

func eq(a, b string) Mark {
	if a == b {
		return MarkHit
	}
	return MarkMiss
}
