// Package progress computes read-only study statistics for a learner:
// the dashboard summary, per-scope state counts and state lookups.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/curriculum"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/scope"
	"github.com/phrazzld/kioku-api/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	// maxStreakDays caps how far back a streak is counted.
	maxStreakDays = 365
	// streakLogLimit bounds the review timestamps read for the streak.
	streakLogLimit = 10000
)

// Horizons for the upcoming due counts.
var horizons = [...]time.Duration{
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
}

// Buckets counts cards per learning state.
type Buckets struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
	Relearn  int `json:"relearn"`
}

// Upcoming counts states due within each horizon from now.
type Upcoming struct {
	H1  int `json:"h1"`
	H6  int `json:"h6"`
	H24 int `json:"h24"`
	D3  int `json:"d3"`
	D7  int `json:"d7"`
}

// Dashboard is the learner's overall summary.
type Dashboard struct {
	DueToday int      `json:"due_today"`
	NewCards int      `json:"new_cards"`
	Streak   int      `json:"streak"`
	Buckets  Buckets  `json:"buckets"`
	Upcoming Upcoming `json:"upcoming"`
}

// ScopeStats counts a scope's members per learning state.
type ScopeStats struct {
	Total int `json:"total"`
	Buckets
}

// Service provides progress statistics.
type Service interface {
	// Dashboard summarizes the learner's queue at now.
	Dashboard(ctx context.Context, learnerID uuid.UUID, now time.Time) (*Dashboard, error)

	// ScopeStats counts the members of one level or deck by state.
	ScopeStats(ctx context.Context, learnerID uuid.UUID, sc *domain.Scope) (*ScopeStats, error)

	// LevelStats returns ScopeStats for every curated level, keyed by
	// taxonomy:level. A non-empty taxonomy restricts the result.
	LevelStats(ctx context.Context, learnerID uuid.UUID, taxonomy string) (map[string]ScopeStats, error)

	// DeckStats returns ScopeStats for every deck the learner can review,
	// keyed by deck id.
	DeckStats(ctx context.Context, learnerID uuid.UUID) (map[string]ScopeStats, error)

	// States returns the learning state of each of ids the learner has graded.
	States(ctx context.Context, learnerID uuid.UUID, ids []string) (map[string]domain.LearningState, error)

	// History returns the learner's review log for one card, oldest first.
	History(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error)
}

type service struct {
	cards      store.CardStore
	states     store.MemoryStateStore
	logs       store.ReviewLogStore
	scopes     store.ScopeStore
	resolver   scope.Resolver
	curriculum *curriculum.Curriculum
	location   *time.Location
	logger     *slog.Logger
}

// Deps groups the collaborators of the progress service.
type Deps struct {
	Cards      store.CardStore
	States     store.MemoryStateStore
	Logs       store.ReviewLogStore
	Scopes     store.ScopeStore
	Resolver   scope.Resolver
	Curriculum *curriculum.Curriculum
	// Location decides where days start for due-today and streaks. UTC when nil.
	Location *time.Location
}

// NewService creates a progress Service.
func NewService(deps Deps, logger *slog.Logger) Service {
	if deps.Cards == nil || deps.States == nil || deps.Logs == nil ||
		deps.Scopes == nil || deps.Resolver == nil || deps.Curriculum == nil {
		panic("progress dependencies cannot be nil")
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		cards:      deps.Cards,
		states:     deps.States,
		logs:       deps.Logs,
		scopes:     deps.Scopes,
		resolver:   deps.Resolver,
		curriculum: deps.Curriculum,
		location:   deps.Location,
		logger:     logger.With(slog.String("component", "progress_service")),
	}
}

// Dashboard implements Service.
func (s *service) Dashboard(ctx context.Context, learnerID uuid.UUID, now time.Time) (*Dashboard, error) {
	var (
		d        Dashboard
		total    int
		byState  map[domain.LearningState]int
		reviews  []time.Time
		upcoming [len(horizons)]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.DueToday, err = s.states.CountDue(gctx, learnerID, endOfDay(now.In(s.location)))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.cards.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byState, err = s.states.CountByState(gctx, learnerID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = s.logs.RecentReviewTimes(gctx, learnerID, streakLogLimit)
		return err
	})
	for i, h := range horizons {
		g.Go(func() error {
			var err error
			upcoming[i], err = s.states.CountDue(gctx, learnerID, now.Add(h))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute dashboard",
			slog.String("learner_id", learnerID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute dashboard: %w", err)
	}

	touched := 0
	for _, n := range byState {
		touched += n
	}
	d.NewCards = max(total-touched, 0)
	d.Buckets = Buckets{
		New:      d.NewCards,
		Learning: byState[domain.StateLearning],
		Review:   byState[domain.StateReview],
		Relearn:  byState[domain.StateRelearn],
	}
	d.Upcoming = Upcoming{H1: upcoming[0], H6: upcoming[1], H24: upcoming[2], D3: upcoming[3], D7: upcoming[4]}
	d.Streak = streak(reviews, now, s.location)
	return &d, nil
}

// ScopeStats implements Service.
func (s *service) ScopeStats(ctx context.Context, learnerID uuid.UUID, sc *domain.Scope) (*ScopeStats, error) {
	if sc == nil {
		return nil, domain.NewValidationError("scope", "is required", domain.ErrInvalidScope)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	ids, err := s.resolver.ResolveScopeMembers(ctx, learnerID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scope %s: %w", sc, err)
	}
	states, err := s.states.StatesFor(ctx, learnerID, ids)
	if err != nil {
		return nil, err
	}
	stats := count(ids, states)
	return &stats, nil
}

// LevelStats implements Service.
func (s *service) LevelStats(ctx context.Context, learnerID uuid.UUID, taxonomy string) (map[string]ScopeStats, error) {
	members := make(map[string][]string)
	var all []string
	for _, ref := range s.curriculum.Levels() {
		if taxonomy != "" && ref.Taxonomy != taxonomy {
			continue
		}
		sc := domain.LevelScope(ref.Taxonomy, ref.Level)
		ids, err := s.resolver.ResolveScopeMembers(ctx, learnerID, sc)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scope %s: %w", sc, err)
		}
		members[sc.LevelTag()] = ids
		all = append(all, ids...)
	}
	return s.countAll(ctx, learnerID, members, all)
}

// DeckStats implements Service.
func (s *service) DeckStats(ctx context.Context, learnerID uuid.UUID) (map[string]ScopeStats, error) {
	deckIDs, err := s.scopes.ListDeckIDs(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	members := make(map[string][]string, len(deckIDs))
	var all []string
	for _, id := range deckIDs {
		ids, err := s.resolver.ResolveScopeMembers(ctx, learnerID, domain.DeckScope(id))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve deck %s: %w", id, err)
		}
		members[id.String()] = ids
		all = append(all, ids...)
	}
	return s.countAll(ctx, learnerID, members, all)
}

func (s *service) countAll(
	ctx context.Context,
	learnerID uuid.UUID,
	members map[string][]string,
	all []string,
) (map[string]ScopeStats, error) {
	states, err := s.states.StatesFor(ctx, learnerID, all)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ScopeStats, len(members))
	for key, ids := range members {
		out[key] = count(ids, states)
	}
	return out, nil
}

// States implements Service.
func (s *service) States(ctx context.Context, learnerID uuid.UUID, ids []string) (map[string]domain.LearningState, error) {
	if len(ids) == 0 {
		return map[string]domain.LearningState{}, nil
	}
	return s.states.StatesFor(ctx, learnerID, ids)
}

// History implements Service.
func (s *service) History(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error) {
	if _, _, err := domain.ParseCardID(cardID); err != nil {
		return nil, err
	}
	entries, err := s.logs.ListByCard(ctx, learnerID, cardID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.ReviewLog{}
	}
	return entries, nil
}

func count(ids []string, states map[string]domain.LearningState) ScopeStats {
	stats := ScopeStats{Total: len(ids)}
	for _, id := range ids {
		switch states[id] {
		case "", domain.StateNew:
			stats.New++
		case domain.StateLearning:
			stats.Learning++
		case domain.StateReview:
			stats.Review++
		case domain.StateRelearn:
			stats.Relearn++
		}
	}
	return stats
}

// endOfDay returns the last millisecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
}

// streak counts consecutive calendar days with at least one review, ending
// today. A day without reviews today means no streak.
func streak(reviews []time.Time, now time.Time, loc *time.Location) int {
	days := make(map[string]struct{}, len(reviews))
	for _, r := range reviews {
		days[r.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	n := 0
	cursor := now.In(loc)
	for n < maxStreakDays {
		if _, ok := days[cursor.Format(time.DateOnly)]; !ok {
			break
		}
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return n
}
