package card_review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ApplyGrade implements CardReviewService.ApplyGrade.
func (s *cardReviewServiceImpl) ApplyGrade(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID string,
	grade domain.Grade,
	now time.Time,
) (*domain.MemoryState, error) {
	ctx, span := s.tracer.Start(ctx, "card_review.apply_grade",
		trace.WithAttributes(
			attribute.String("learner.id", learnerID.String()),
			attribute.String("card.id", cardID),
			attribute.String("review.grade", string(grade)),
		))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("learner_id", learnerID.String()),
		slog.String("card_id", cardID),
		slog.String("grade", string(grade)))

	if !grade.Valid() {
		log.Warn("invalid review grade")
		span.SetStatus(codes.Error, "invalid grade")
		return nil, domain.NewValidationError("grade", "must be one of again, hard, good, easy", ErrInvalidGrade)
	}

	if _, err := s.stores.Cards.GetByID(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Warn("card not found for review")
			span.SetStatus(codes.Error, "card not found")
			return nil, ErrCardNotFound
		}
		return nil, s.gradeFailed(span, log, "failed to load card", err)
	}

	var next *domain.MemoryState
	err := store.RunInTransaction(ctx, s.stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		states := s.stores.States.WithTx(tx)
		logs := s.stores.Logs.WithTx(tx)

		prior, err := states.Get(ctx, learnerID, cardID)
		if errors.Is(err, store.ErrMemoryStateNotFound) {
			prior = domain.NewMemoryState(learnerID, cardID, now)
		} else if err != nil {
			return fmt.Errorf("failed to load memory state: %w", err)
		}

		updated, entry, err := s.srsService.Update(prior, grade, now)
		if err != nil {
			return fmt.Errorf("failed to update memory state: %w", err)
		}
		entry.ID = s.newID()

		if err := states.Upsert(ctx, updated); err != nil {
			return fmt.Errorf("failed to save memory state: %w", err)
		}
		if err := logs.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review log: %w", err)
		}
		next = updated
		return nil
	})
	if err != nil {
		return nil, s.gradeFailed(span, log, "failed to record grade", err)
	}

	span.SetAttributes(
		attribute.String("review.state", string(next.State)),
		attribute.Float64("review.scheduled_days", next.ScheduledDays),
	)
	log.Debug("recorded review",
		slog.String("state", string(next.State)),
		slog.Float64("stability", next.Stability),
		slog.Float64("difficulty", next.Difficulty),
		slog.Time("next_due", *next.NextDue))
	return next, nil
}

func (s *cardReviewServiceImpl) gradeFailed(span trace.Span, log *slog.Logger, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	log.Error(msg, slog.String("error", err.Error()))
	return NewApplyGradeError(msg, err)
}
