package card_review

import (
	"context"
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

// memberChunk bounds how many scope members are looked up per round trip
// during the new pass.
const memberChunk = 200

// Next implements CardReviewService.Next.
func (s *cardReviewServiceImpl) Next(
	ctx context.Context,
	learnerID uuid.UUID,
	sc *domain.Scope,
	now time.Time,
) (*Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "card_review.next",
		trace.WithAttributes(
			attribute.String("learner.id", learnerID.String()),
			attribute.String("review.scope", sc.String()),
		))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("learner_id", learnerID.String()),
		slog.String("scope", sc.String()))

	if err := sc.Validate(); err != nil {
		log.Debug("invalid scope yields no candidate", slog.String("reason", err.Error()))
		span.SetAttributes(attribute.Bool("review.empty", true))
		return nil, ErrNoCardsDue
	}

	var members []string
	if sc != nil {
		var err error
		members, err = s.resolver.ResolveScopeMembers(ctx, learnerID, sc)
		if err != nil {
			return nil, s.nextFailed(span, log, "failed to resolve scope", err)
		}
	}

	candidate, err := s.duePass(ctx, learnerID, sc, members, now)
	if err != nil {
		return nil, s.nextFailed(span, log, "failed to select due card", err)
	}
	if candidate == nil {
		candidate, err = s.newPass(ctx, learnerID, sc, members)
		if err != nil {
			return nil, s.nextFailed(span, log, "failed to select new card", err)
		}
	}
	if candidate == nil {
		log.Debug("no card available")
		span.SetAttributes(attribute.Bool("review.empty", true))
		return nil, ErrNoCardsDue
	}

	span.SetAttributes(
		attribute.String("card.id", candidate.Card.ID),
		attribute.String("review.reason", string(candidate.Reason)),
	)
	log.Debug("selected next card",
		slog.String("card_id", candidate.Card.ID),
		slog.String("reason", string(candidate.Reason)))
	return candidate, nil
}

func (s *cardReviewServiceImpl) nextFailed(span trace.Span, log *slog.Logger, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	log.Error(msg, slog.String("error", err.Error()))
	return NewNextError(msg, err)
}

// duePass pages through the learner's due states in (next_due, card_id)
// order and returns the first one inside the scope. ListDue already restricts
// level scopes to cards carrying the tag, so only deck scopes are filtered
// here, against the resolved members.
func (s *cardReviewServiceImpl) duePass(
	ctx context.Context,
	learnerID uuid.UUID,
	sc *domain.Scope,
	members []string,
	now time.Time,
) (*Candidate, error) {
	var memberSet map[string]struct{}
	if sc != nil && sc.Kind == domain.ScopeKindDeck {
		if len(members) == 0 {
			return nil, nil
		}
		memberSet = make(map[string]struct{}, len(members))
		for _, id := range members {
			memberSet[id] = struct{}{}
		}
	}
	levelTag := sc.LevelTag()

	for offset := 0; ; offset += s.duePageSize {
		page, err := s.stores.States.ListDue(ctx, learnerID, now, levelTag, s.duePageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, state := range page {
			if memberSet != nil {
				if _, ok := memberSet[state.CardID]; !ok {
					continue
				}
			}
			card, err := s.stores.Cards.GetByID(ctx, state.CardID)
			if errors.Is(err, store.ErrCardNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return &Candidate{Card: card, State: state, Reason: ReasonDue}, nil
		}
		if len(page) < s.duePageSize {
			return nil, nil
		}
	}
}

// newPass returns the first untouched card. Scoped requests follow the
// scope's member order; level scopes then fall back to any other untouched
// card carrying the level tag, and unscoped requests go by term.
func (s *cardReviewServiceImpl) newPass(
	ctx context.Context,
	learnerID uuid.UUID,
	sc *domain.Scope,
	members []string,
) (*Candidate, error) {
	if sc == nil {
		return s.untouched(ctx, learnerID, "")
	}

	levelTag := sc.LevelTag()
	for start := 0; start < len(members); start += memberChunk {
		chunk := members[start:min(start+memberChunk, len(members))]

		states, err := s.stores.States.StatesFor(ctx, learnerID, chunk)
		if err != nil {
			return nil, err
		}
		cards, err := s.stores.Cards.GetByIDs(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for _, id := range chunk {
			if _, seen := states[id]; seen {
				continue
			}
			card, ok := cards[id]
			if !ok {
				continue
			}
			if levelTag != "" && !card.HasLevel(levelTag) {
				continue
			}
			return &Candidate{Card: card, Reason: ReasonNew}, nil
		}
	}

	if levelTag != "" {
		return s.untouched(ctx, learnerID, levelTag)
	}
	return nil, nil
}

func (s *cardReviewServiceImpl) untouched(ctx context.Context, learnerID uuid.UUID, levelTag string) (*Candidate, error) {
	card, err := s.stores.Cards.NextUntouched(ctx, learnerID, levelTag)
	if errors.Is(err, store.ErrCardNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find untouched card: %w", err)
	}
	return &Candidate{Card: card, Reason: ReasonNew}, nil
}
