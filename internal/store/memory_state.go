package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// MemoryStateStore defines the interface for per-learner memory state persistence.
// Rows are keyed by (learner, card) and only exist for cards that were graded.
type MemoryStateStore interface {
	// Get retrieves the memory state for a learner and card.
	// Returns ErrMemoryStateNotFound when the card was never graded by the learner.
	Get(ctx context.Context, learnerID uuid.UUID, cardID string) (*domain.MemoryState, error)

	// Upsert inserts the state or overwrites the existing row for the same key.
	// created_at is preserved on overwrite.
	Upsert(ctx context.Context, state *domain.MemoryState) error

	// ListDue returns states with next_due <= now ordered by next_due, then card id.
	// Only states whose card exists are returned. A non-empty levelTag restricts
	// the result to cards carrying that tag.
	ListDue(ctx context.Context, learnerID uuid.UUID, now time.Time, levelTag string, limit, offset int) ([]*domain.MemoryState, error)

	// StatesFor returns the learning state of each of ids that has a row.
	StatesFor(ctx context.Context, learnerID uuid.UUID, ids []string) (map[string]domain.LearningState, error)

	// CountDue counts states with next_due <= before.
	CountDue(ctx context.Context, learnerID uuid.UUID, before time.Time) (int, error)

	// CountByState counts the learner's rows per learning state.
	CountByState(ctx context.Context, learnerID uuid.UUID) (map[domain.LearningState]int, error)

	// WithTx returns a new MemoryStateStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) MemoryStateStore
}
