package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
)

// ReviewLogStore implements the append-only store.ReviewLogStore interface on database/sql.
type ReviewLogStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

// NewReviewLogStore creates a new ReviewLogStore.
// If logger is nil, a default logger will be used.
func NewReviewLogStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *ReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure ReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// WithTx implements store.ReviewLogStore.WithTx
func (s *ReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &ReviewLogStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// Create implements store.ReviewLogStore.Create
func (s *ReviewLogStore) Create(ctx context.Context, entry *domain.ReviewLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, rebind(s.dialect, `
		INSERT INTO review_logs (
			id, learner_id, card_id, reviewed_at, grade, state, elapsed_days, scheduled_days
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.LearnerID, entry.CardID, toMillis(entry.ReviewedAt),
		string(entry.Grade), string(entry.State), entry.Elapsed, entry.Scheduled,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrReviewLogExists, err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append review log",
			slog.String("learner_id", entry.LearnerID.String()),
			slog.String("card_id", entry.CardID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to append review log: %w", MapError(err))
	}
	return nil
}

// ListByCard implements store.ReviewLogStore.ListByCard
func (s *ReviewLogStore) ListByCard(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT id, learner_id, card_id, reviewed_at, grade, state, elapsed_days, scheduled_days
		FROM review_logs
		WHERE learner_id = ? AND card_id = ?
		ORDER BY reviewed_at, id`), learnerID, cardID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list review logs",
			slog.String("card_id", cardID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list review logs: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	logs := []*domain.ReviewLog{}
	for rows.Next() {
		var (
			l            domain.ReviewLog
			reviewed     int64
			grade, state string
		)
		if err := rows.Scan(&l.ID, &l.LearnerID, &l.CardID, &reviewed, &grade, &state, &l.Elapsed, &l.Scheduled); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		l.ReviewedAt = fromMillis(reviewed)
		l.Grade = domain.Grade(grade)
		l.State = domain.LearningState(state)
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review log rows: %w", err)
	}
	return logs, nil
}

// RecentReviewTimes implements store.ReviewLogStore.RecentReviewTimes
func (s *ReviewLogStore) RecentReviewTimes(ctx context.Context, learnerID uuid.UUID, limit int) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT reviewed_at
		FROM review_logs
		WHERE learner_id = ?
		ORDER BY reviewed_at DESC
		LIMIT ?`), learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list review times: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var times []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("failed to scan review time: %w", err)
		}
		times = append(times, fromMillis(ms))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review times: %w", err)
	}
	return times, nil
}
