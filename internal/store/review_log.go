package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// ReviewLogStore defines the interface for the append-only review log.
// There are deliberately no update or delete operations.
type ReviewLogStore interface {
	// Create appends a log entry. Returns ErrDuplicate if the id already exists.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// ListByCard returns a learner's log entries for one card, oldest first.
	ListByCard(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error)

	// RecentReviewTimes returns up to limit review timestamps, newest first.
	RecentReviewTimes(ctx context.Context, learnerID uuid.UUID, limit int) ([]time.Time, error)

	// WithTx returns a new ReviewLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
