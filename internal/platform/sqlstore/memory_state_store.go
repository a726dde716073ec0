package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
)

const memoryStateColumns = `m.learner_id, m.card_id, m.state, m.difficulty, m.stability,
	m.retrievability, m.elapsed_days, m.scheduled_days, m.learning_steps, m.lapses,
	m.reps, m.last_review, m.next_due, m.created_at, m.updated_at`

// MemoryStateStore implements the store.MemoryStateStore interface on database/sql.
type MemoryStateStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

// NewMemoryStateStore creates a new MemoryStateStore.
// If logger is nil, a default logger will be used.
func NewMemoryStateStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *MemoryStateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStateStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "memory_state_store")),
	}
}

// Ensure MemoryStateStore implements store.MemoryStateStore interface
var _ store.MemoryStateStore = (*MemoryStateStore)(nil)

// WithTx implements store.MemoryStateStore.WithTx
func (s *MemoryStateStore) WithTx(tx *sql.Tx) store.MemoryStateStore {
	return &MemoryStateStore{db: tx, dialect: s.dialect, logger: s.logger}
}

func (s *MemoryStateStore) q(query string) string {
	return rebind(s.dialect, query)
}

func scanMemoryState(row interface{ Scan(...any) error }) (*domain.MemoryState, error) {
	var (
		m                domain.MemoryState
		state            string
		lastReview, due  sql.NullInt64
		created, updated int64
	)
	err := row.Scan(
		&m.LearnerID, &m.CardID, &state, &m.Difficulty, &m.Stability,
		&m.Retrievability, &m.ElapsedDays, &m.ScheduledDays, &m.LearningSteps, &m.Lapses,
		&m.Reps, &lastReview, &due, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	m.State = domain.LearningState(state)
	m.LastReview = timePtr(lastReview)
	m.NextDue = timePtr(due)
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
	return &m, nil
}

// Get implements store.MemoryStateStore.Get
func (s *MemoryStateStore) Get(ctx context.Context, learnerID uuid.UUID, cardID string) (*domain.MemoryState, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+memoryStateColumns+`
		FROM memory_states m
		WHERE m.learner_id = ? AND m.card_id = ?`), learnerID, cardID)

	m, err := scanMemoryState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrMemoryStateNotFound
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get memory state",
			slog.String("learner_id", learnerID.String()),
			slog.String("card_id", cardID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get memory state: %w", MapError(err))
	}
	return m, nil
}

// Upsert implements store.MemoryStateStore.Upsert
func (s *MemoryStateStore) Upsert(ctx context.Context, m *domain.MemoryState) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO memory_states (
			learner_id, card_id, state, difficulty, stability,
			retrievability, elapsed_days, scheduled_days, learning_steps, lapses,
			reps, last_review, next_due, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, card_id) DO UPDATE SET
			state = excluded.state,
			difficulty = excluded.difficulty,
			stability = excluded.stability,
			retrievability = excluded.retrievability,
			elapsed_days = excluded.elapsed_days,
			scheduled_days = excluded.scheduled_days,
			learning_steps = excluded.learning_steps,
			lapses = excluded.lapses,
			reps = excluded.reps,
			last_review = excluded.last_review,
			next_due = excluded.next_due,
			updated_at = excluded.updated_at`),
		m.LearnerID, m.CardID, string(m.State), m.Difficulty, m.Stability,
		m.Retrievability, m.ElapsedDays, m.ScheduledDays, m.LearningSteps, m.Lapses,
		m.Reps, nullMillis(m.LastReview), nullMillis(m.NextDue), toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert memory state",
			slog.String("learner_id", m.LearnerID.String()),
			slog.String("card_id", m.CardID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upsert memory state: %w", MapError(err))
	}
	return nil
}

// ListDue implements store.MemoryStateStore.ListDue
func (s *MemoryStateStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
	levelTag string,
	limit, offset int,
) ([]*domain.MemoryState, error) {
	query := `
		SELECT ` + memoryStateColumns + `
		FROM memory_states m
		JOIN cards c ON c.id = m.card_id`
	var args []any
	if levelTag != "" {
		query += `
		JOIN card_levels l ON l.card_id = m.card_id AND l.level_tag = ?`
		args = append(args, levelTag)
	}
	query += `
		WHERE m.learner_id = ? AND m.next_due IS NOT NULL AND m.next_due <= ?
		ORDER BY m.next_due, ` + byteOrder(s.dialect, "m.card_id") + `
		LIMIT ? OFFSET ?`
	args = append(args, learnerID, toMillis(now), limit, offset)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list due states",
			slog.String("learner_id", learnerID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list due states: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var states []*domain.MemoryState
	for rows.Next() {
		m, err := scanMemoryState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory state row: %w", err)
		}
		states = append(states, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory state rows: %w", err)
	}
	return states, nil
}

// StatesFor implements store.MemoryStateStore.StatesFor
func (s *MemoryStateStore) StatesFor(
	ctx context.Context,
	learnerID uuid.UUID,
	ids []string,
) (map[string]domain.LearningState, error) {
	out := make(map[string]domain.LearningState, len(ids))
	for _, chunk := range chunks(ids) {
		args := append([]any{learnerID}, stringArgs(chunk)...)
		rows, err := s.db.QueryContext(ctx, s.q(`
			SELECT card_id, state
			FROM memory_states
			WHERE learner_id = ? AND card_id IN (`+placeholders(len(chunk))+`)`), args...)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to query states",
				slog.String("learner_id", learnerID.String()),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to query states: %w", MapError(err))
		}
		for rows.Next() {
			var id, state string
			if err := rows.Scan(&id, &state); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan state row: %w", err)
			}
			out[id] = domain.LearningState(state)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating state rows: %w", err)
		}
	}
	return out, nil
}

// CountDue implements store.MemoryStateStore.CountDue
func (s *MemoryStateStore) CountDue(ctx context.Context, learnerID uuid.UUID, before time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*)
		FROM memory_states
		WHERE learner_id = ? AND next_due IS NOT NULL AND next_due <= ?`),
		learnerID, toMillis(before)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due states: %w", MapError(err))
	}
	return n, nil
}

// CountByState implements store.MemoryStateStore.CountByState
func (s *MemoryStateStore) CountByState(ctx context.Context, learnerID uuid.UUID) (map[domain.LearningState]int, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT state, COUNT(*)
		FROM memory_states
		WHERE learner_id = ?
		GROUP BY state`), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	out := make(map[domain.LearningState]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		out[domain.LearningState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating state counts: %w", err)
	}
	return out, nil
}
