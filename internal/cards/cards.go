// internal/cards/cards.go
//
// Card catalog used by the Riftle puzzle engine.
// The catalog is read-only from the game's point of view: a separate
// snapshot process keeps the cards table in sync with the upstream
// card database. This package answers two questions:
//   - does a guessed card id resolve to a real card?
//   - which cards are eligible to become a daily puzzle?

package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUnknownCard is returned when a card id does not resolve in the catalog.
var ErrUnknownCard = errors.New("unknown card")

// Card is one catalog entry. Cost is the card's mana cost; Collectible
// distinguishes real cards from tokens/skins that never become puzzles.
type Card struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SetCode     string `json:"setCode"`
	Rarity      string `json:"rarity"`
	Region      string `json:"region"`
	Cost        int    `json:"cost"`
	CardType    string `json:"cardType"`
	Collectible bool   `json:"collectible"`
}

// Catalog is the read-only card source.
// Implementations may be backed by SQLite (this package) or a remote API.
type Catalog interface {
	// Get returns the card with the given id, or ErrUnknownCard.
	Get(ctx context.Context, id string) (Card, error)

	// Eligible returns all puzzle-eligible cards ordered by id.
	// Non-collectible card classes are excluded.
	Eligible(ctx context.Context) ([]Card, error)
}

type sqliteCatalog struct {
	db *sql.DB
}

// NewCatalog returns a Catalog backed by the cards table.
func NewCatalog(db *sql.DB) Catalog {
	return &sqliteCatalog{db: db}
}

func (c *sqliteCatalog) Get(ctx context.Context, id string) (Card, error) {
	var card Card
	var collectible int
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, set_code, rarity, region, cost, card_type, collectible
		FROM cards WHERE id=?`, id,
	).Scan(&card.ID, &card.Name, &card.SetCode, &card.Rarity, &card.Region,
		&card.Cost, &card.CardType, &collectible)
	if errors.Is(err, sql.ErrNoRows) {
		return Card{}, ErrUnknownCard
	}
	if err != nil {
		return Card{}, fmt.Errorf("load card %s: %w", id, err)
	}
	card.Collectible = collectible == 1
	return card, nil
}

func (c *sqliteCatalog) Eligible(ctx context.Context) ([]Card, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, set_code, rarity, region, cost, card_type, collectible
		FROM cards WHERE collectible=1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("load eligible cards: %w", err)
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		var card Card
		var collectible int
		if err := rows.Scan(&card.ID, &card.Name, &card.SetCode, &card.Rarity,
			&card.Region, &card.Cost, &card.CardType, &collectible); err != nil {
			return nil, err
		}
		card.Collectible = collectible == 1
		out = append(out, card)
	}
	return out, rows.Err()
}

// Insert adds a card to the catalog. Used by the snapshot importer and tests.
func Insert(ctx context.Context, db *sql.DB, card Card) error {
	collectible := 0
	if card.Collectible {
		collectible = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cards (id, name, set_code, rarity, region, cost, card_type, collectible)
		VALUES (?,?,?,?,?,?,?,?)`,
		card.ID, card.Name, card.SetCode, card.Rarity, card.Region, card.Cost,
		card.CardType, collectible,
	)
	return err
}
