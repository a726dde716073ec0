package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// ScopeStore reads the data that defines review scopes: custom deck items
// and per-level order overrides. Decks and overrides are maintained elsewhere.
type ScopeStore interface {
	// ListDeckItems returns the items of a deck the learner can review, ordered
	// by position. Returns ErrDeckNotFound if the deck does not exist or is
	// owned by another learner.
	ListDeckItems(ctx context.Context, learnerID, deckID uuid.UUID) ([]domain.DeckItem, error)

	// ListDeckIDs returns the ids of all decks the learner can review:
	// their own decks and shared decks.
	ListDeckIDs(ctx context.Context, learnerID uuid.UUID) ([]uuid.UUID, error)

	// ListLevelOverride returns the override term order for a level, or an
	// empty slice when the curated order applies.
	ListLevelOverride(ctx context.Context, taxonomy, level string) ([]string, error)
}
