package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/service/card_review"
)

// MockCardReviewService implements card_review.CardReviewService for testing
type MockCardReviewService struct {
	// Custom behavior functions
	NextFn       func(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope, now time.Time) (*card_review.Candidate, error)
	ApplyGradeFn func(ctx context.Context, learnerID uuid.UUID, cardID string, grade domain.Grade, now time.Time) (*domain.MemoryState, error)

	// Default response values
	Candidate    *card_review.Candidate
	UpdatedState *domain.MemoryState
	Err          error

	// Call tracking for verification
	NextCalls struct {
		mu         sync.Mutex
		Count      int
		LearnerIDs []uuid.UUID
		Scopes     []*domain.Scope
	}

	ApplyGradeCalls struct {
		mu         sync.Mutex
		Count      int
		LearnerIDs []uuid.UUID
		CardIDs    []string
		Grades     []domain.Grade
	}
}

var _ card_review.CardReviewService = (*MockCardReviewService)(nil)

// Next implements the card_review.CardReviewService interface
func (m *MockCardReviewService) Next(
	ctx context.Context,
	learnerID uuid.UUID,
	scope *domain.Scope,
	now time.Time,
) (*card_review.Candidate, error) {
	m.NextCalls.mu.Lock()
	m.NextCalls.Count++
	m.NextCalls.LearnerIDs = append(m.NextCalls.LearnerIDs, learnerID)
	m.NextCalls.Scopes = append(m.NextCalls.Scopes, scope)
	m.NextCalls.mu.Unlock()

	if m.NextFn != nil {
		return m.NextFn(ctx, learnerID, scope, now)
	}
	return m.Candidate, m.Err
}

// ApplyGrade implements the card_review.CardReviewService interface
func (m *MockCardReviewService) ApplyGrade(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID string,
	grade domain.Grade,
	now time.Time,
) (*domain.MemoryState, error) {
	m.ApplyGradeCalls.mu.Lock()
	m.ApplyGradeCalls.Count++
	m.ApplyGradeCalls.LearnerIDs = append(m.ApplyGradeCalls.LearnerIDs, learnerID)
	m.ApplyGradeCalls.CardIDs = append(m.ApplyGradeCalls.CardIDs, cardID)
	m.ApplyGradeCalls.Grades = append(m.ApplyGradeCalls.Grades, grade)
	m.ApplyGradeCalls.mu.Unlock()

	if m.ApplyGradeFn != nil {
		return m.ApplyGradeFn(ctx, learnerID, cardID, grade, now)
	}
	return m.UpdatedState, m.Err
}

// NextCount returns how many times Next was called.
func (m *MockCardReviewService) NextCount() int {
	m.NextCalls.mu.Lock()
	defer m.NextCalls.mu.Unlock()
	return m.NextCalls.Count
}

// ApplyGradeCount returns how many times ApplyGrade was called.
func (m *MockCardReviewService) ApplyGradeCount() int {
	m.ApplyGradeCalls.mu.Lock()
	defer m.ApplyGradeCalls.mu.Unlock()
	return m.ApplyGradeCalls.Count
}
