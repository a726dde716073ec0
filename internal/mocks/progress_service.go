package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/service/progress"
)

// MockProgressService implements progress.Service for testing. Methods
// without a function field return zero values and Err.
type MockProgressService struct {
	DashboardFn  func(ctx context.Context, learnerID uuid.UUID, now time.Time) (*progress.Dashboard, error)
	ScopeStatsFn func(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope) (*progress.ScopeStats, error)
	LevelStatsFn func(ctx context.Context, learnerID uuid.UUID, taxonomy string) (map[string]progress.ScopeStats, error)
	DeckStatsFn  func(ctx context.Context, learnerID uuid.UUID) (map[string]progress.ScopeStats, error)
	StatesFn     func(ctx context.Context, learnerID uuid.UUID, ids []string) (map[string]domain.LearningState, error)
	HistoryFn    func(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error)

	Err error
}

var _ progress.Service = (*MockProgressService)(nil)

// Dashboard implements progress.Service
func (m *MockProgressService) Dashboard(ctx context.Context, learnerID uuid.UUID, now time.Time) (*progress.Dashboard, error) {
	if m.DashboardFn != nil {
		return m.DashboardFn(ctx, learnerID, now)
	}
	return nil, m.Err
}

// ScopeStats implements progress.Service
func (m *MockProgressService) ScopeStats(
	ctx context.Context,
	learnerID uuid.UUID,
	scope *domain.Scope,
) (*progress.ScopeStats, error) {
	if m.ScopeStatsFn != nil {
		return m.ScopeStatsFn(ctx, learnerID, scope)
	}
	return nil, m.Err
}

// LevelStats implements progress.Service
func (m *MockProgressService) LevelStats(
	ctx context.Context,
	learnerID uuid.UUID,
	taxonomy string,
) (map[string]progress.ScopeStats, error) {
	if m.LevelStatsFn != nil {
		return m.LevelStatsFn(ctx, learnerID, taxonomy)
	}
	return nil, m.Err
}

// DeckStats implements progress.Service
func (m *MockProgressService) DeckStats(ctx context.Context, learnerID uuid.UUID) (map[string]progress.ScopeStats, error) {
	if m.DeckStatsFn != nil {
		return m.DeckStatsFn(ctx, learnerID)
	}
	return nil, m.Err
}

// States implements progress.Service
func (m *MockProgressService) States(
	ctx context.Context,
	learnerID uuid.UUID,
	ids []string,
) (map[string]domain.LearningState, error) {
	if m.StatesFn != nil {
		return m.StatesFn(ctx, learnerID, ids)
	}
	return nil, m.Err
}

// History implements progress.Service
func (m *MockProgressService) History(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, learnerID, cardID)
	}
	return nil, m.Err
}
