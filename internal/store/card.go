package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// CardStore defines the interface for card data persistence.
// Cards are content owned by the content layer; the review engine reads them
// and provisions stubs for custom deck entries.
type CardStore interface {
	// GetByID retrieves a card, including its level tags.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id string) (*domain.Card, error)

	// GetByIDs retrieves the cards that exist among ids, keyed by id.
	// Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Card, error)

	// EnsureStub inserts a bare card for id if none exists and returns the stored card.
	// Concurrent calls for the same id are safe; the first insert wins.
	EnsureStub(ctx context.Context, id string, cardType domain.CardType, term string) (*domain.Card, error)

	// EnsureStubs inserts a bare card for every item that has none, in as few
	// statements as the bind parameter limit allows. Existing cards are left
	// untouched and nothing is read back.
	EnsureStubs(ctx context.Context, items []domain.DeckItem) error

	// EnsureCard inserts card if absent and adds any of its level tags that are missing.
	// Existing tags are never removed.
	EnsureCard(ctx context.Context, card *domain.Card) error

	// NextUntouched returns the first card, ordered by term then id, that the learner
	// has no memory state for. A non-empty levelTag restricts the search to cards
	// carrying that tag. Returns ErrCardNotFound when every candidate has been seen.
	NextUntouched(ctx context.Context, learnerID uuid.UUID, levelTag string) (*domain.Card, error)

	// Count returns the total number of cards.
	Count(ctx context.Context) (int, error)

	// WithTx returns a new CardStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
