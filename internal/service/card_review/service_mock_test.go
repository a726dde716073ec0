package card_review_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/domain/srs"
	"github.com/phrazzld/kioku-api/internal/service/card_review"
	"github.com/phrazzld/kioku-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCardStore is a mock implementation of store.CardStore
type MockCardStore struct {
	mock.Mock
}

func (m *MockCardStore) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Card, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Card), args.Error(1)
}

func (m *MockCardStore) EnsureStub(ctx context.Context, id string, cardType domain.CardType, term string) (*domain.Card, error) {
	args := m.Called(ctx, id, cardType, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardStore) EnsureStubs(ctx context.Context, items []domain.DeckItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockCardStore) EnsureCard(ctx context.Context, card *domain.Card) error {
	return m.Called(ctx, card).Error(0)
}

func (m *MockCardStore) NextUntouched(ctx context.Context, learnerID uuid.UUID, levelTag string) (*domain.Card, error) {
	args := m.Called(ctx, learnerID, levelTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *MockCardStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return m
}

// MockMemoryStateStore is a mock implementation of store.MemoryStateStore
type MockMemoryStateStore struct {
	mock.Mock
}

func (m *MockMemoryStateStore) Get(ctx context.Context, learnerID uuid.UUID, cardID string) (*domain.MemoryState, error) {
	args := m.Called(ctx, learnerID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemoryState), args.Error(1)
}

func (m *MockMemoryStateStore) Upsert(ctx context.Context, state *domain.MemoryState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *MockMemoryStateStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	now time.Time,
	levelTag string,
	limit, offset int,
) ([]*domain.MemoryState, error) {
	args := m.Called(ctx, learnerID, now, levelTag, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MemoryState), args.Error(1)
}

func (m *MockMemoryStateStore) StatesFor(
	ctx context.Context,
	learnerID uuid.UUID,
	ids []string,
) (map[string]domain.LearningState, error) {
	args := m.Called(ctx, learnerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.LearningState), args.Error(1)
}

func (m *MockMemoryStateStore) CountDue(ctx context.Context, learnerID uuid.UUID, before time.Time) (int, error) {
	args := m.Called(ctx, learnerID, before)
	return args.Int(0), args.Error(1)
}

func (m *MockMemoryStateStore) CountByState(ctx context.Context, learnerID uuid.UUID) (map[domain.LearningState]int, error) {
	args := m.Called(ctx, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.LearningState]int), args.Error(1)
}

func (m *MockMemoryStateStore) WithTx(tx *sql.Tx) store.MemoryStateStore {
	return m
}

// MockReviewLogStore is a mock implementation of store.ReviewLogStore
type MockReviewLogStore struct {
	mock.Mock
}

func (m *MockReviewLogStore) Create(ctx context.Context, entry *domain.ReviewLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockReviewLogStore) ListByCard(ctx context.Context, learnerID uuid.UUID, cardID string) ([]*domain.ReviewLog, error) {
	args := m.Called(ctx, learnerID, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewLog), args.Error(1)
}

func (m *MockReviewLogStore) RecentReviewTimes(ctx context.Context, learnerID uuid.UUID, limit int) ([]time.Time, error) {
	args := m.Called(ctx, learnerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return m
}

// MockResolver is a mock implementation of scope.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveScopeMembers(ctx context.Context, learnerID uuid.UUID, sc *domain.Scope) ([]string, error) {
	args := m.Called(ctx, learnerID, sc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockResolver) IsMember(ctx context.Context, learnerID uuid.UUID, sc *domain.Scope, cardID string) (bool, error) {
	args := m.Called(ctx, learnerID, sc, cardID)
	return args.Bool(0), args.Error(1)
}

type mocked struct {
	svc      card_review.CardReviewService
	sqlMock  sqlmock.Sqlmock
	cards    *MockCardStore
	states   *MockMemoryStateStore
	logs     *MockReviewLogStore
	resolver *MockResolver
}

func newMocked(t *testing.T) *mocked {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := &mocked{
		sqlMock:  sqlMock,
		cards:    &MockCardStore{},
		states:   &MockMemoryStateStore{},
		logs:     &MockReviewLogStore{},
		resolver: &MockResolver{},
	}
	m.svc = card_review.NewCardReviewService(
		card_review.Stores{DB: db, Cards: m.cards, States: m.states, Logs: m.logs},
		m.resolver,
		srs.NewDefaultService(),
		nil,
	)
	return m
}

func TestApplyGrade_UpsertFailureRollsBack(t *testing.T) {
	m := newMocked(t)
	learner := uuid.New()
	card := &domain.Card{ID: "kanji:人", Type: domain.CardTypeKanji, Term: "人"}
	boom := errors.New("disk full")

	m.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
	m.states.On("Get", mock.Anything, learner, card.ID).Return(nil, store.ErrMemoryStateNotFound)
	m.states.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.MemoryState")).Return(boom)
	m.sqlMock.ExpectBegin()
	m.sqlMock.ExpectRollback()

	_, err := m.svc.ApplyGrade(context.Background(), learner, card.ID, domain.GradeGood, t0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	m.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.NoError(t, m.sqlMock.ExpectationsWereMet())
}

func TestApplyGrade_CommitFailure(t *testing.T) {
	m := newMocked(t)
	learner := uuid.New()
	card := &domain.Card{ID: "kanji:人", Type: domain.CardTypeKanji, Term: "人"}

	m.cards.On("GetByID", mock.Anything, card.ID).Return(card, nil)
	m.states.On("Get", mock.Anything, learner, card.ID).Return(nil, store.ErrMemoryStateNotFound)
	m.states.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.logs.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.ReviewLog) bool {
		return l.ID != uuid.Nil && l.CardID == card.ID && l.Grade == domain.GradeGood
	})).Return(nil)
	m.sqlMock.ExpectBegin()
	m.sqlMock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := m.svc.ApplyGrade(context.Background(), learner, card.ID, domain.GradeGood, t0)
	assert.ErrorIs(t, err, store.ErrTransactionFailed)
	assert.NoError(t, m.sqlMock.ExpectationsWereMet())
}

func TestApplyGrade_GradeCheckedBeforeAnyRead(t *testing.T) {
	m := newMocked(t)

	_, err := m.svc.ApplyGrade(context.Background(), uuid.New(), "kanji:人", "meh", t0)
	assert.ErrorIs(t, err, card_review.ErrInvalidGrade)
	m.cards.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestApplyGrade_CardLookupFailure(t *testing.T) {
	m := newMocked(t)
	boom := errors.New("timeout")
	m.cards.On("GetByID", mock.Anything, "kanji:人").Return(nil, boom)

	_, err := m.svc.ApplyGrade(context.Background(), uuid.New(), "kanji:人", domain.GradeGood, t0)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, card_review.ErrCardNotFound)
	assert.NoError(t, m.sqlMock.ExpectationsWereMet(), "no transaction is opened")
}

func TestNext_ResolverFailure(t *testing.T) {
	m := newMocked(t)
	sc := domain.LevelScope("jlpt", "N5")
	boom := errors.New("scope store down")
	m.resolver.On("ResolveScopeMembers", mock.Anything, mock.Anything, sc).Return(nil, boom)

	_, err := m.svc.Next(context.Background(), uuid.New(), sc, t0)
	assert.ErrorIs(t, err, boom)
	var serr *card_review.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "next", serr.Operation)
}

func TestNext_LevelDueTrustsTagFilter(t *testing.T) {
	m := newMocked(t)
	learner := uuid.New()
	sc := domain.LevelScope("jlpt", "N5")
	due := t0.Add(-time.Hour)
	accepted := &domain.MemoryState{LearnerID: learner, CardID: "kanji:人", State: domain.StateReview, NextDue: &due}
	card := &domain.Card{ID: "kanji:人", Type: domain.CardTypeKanji, Term: "人", Levels: []string{"jlpt:N5"}}

	m.resolver.On("ResolveScopeMembers", mock.Anything, learner, sc).Return([]string{"kanji:人"}, nil)
	m.states.On("ListDue", mock.Anything, learner, t0, "jlpt:N5", 100, 0).
		Return([]*domain.MemoryState{accepted}, nil)
	m.cards.On("GetByID", mock.Anything, "kanji:人").Return(card, nil)

	got, err := m.svc.Next(context.Background(), learner, sc, t0)
	require.NoError(t, err)
	assert.Equal(t, card, got.Card)
	assert.Equal(t, accepted, got.State)
	assert.Equal(t, card_review.ReasonDue, got.Reason)
	m.states.AssertNotCalled(t, "StatesFor", mock.Anything, mock.Anything, mock.Anything)
	m.resolver.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNext_DueListFailure(t *testing.T) {
	m := newMocked(t)
	learner := uuid.New()
	boom := errors.New("query failed")
	m.states.On("ListDue", mock.Anything, learner, t0, "", 100, 0).Return(nil, boom)

	_, err := m.svc.Next(context.Background(), learner, nil, t0)
	assert.ErrorIs(t, err, boom)
	m.cards.AssertNotCalled(t, "NextUntouched", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceError(t *testing.T) {
	inner := errors.New("inner")
	err := card_review.NewApplyGradeError("failed to record grade", inner)
	assert.Equal(t, "apply_grade operation failed: failed to record grade: inner", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := &card_review.ServiceError{Operation: "next", Message: "nothing"}
	assert.Equal(t, "next operation failed: nothing", bare.Error())
}
