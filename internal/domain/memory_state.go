package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningState is the learning-phase classification of a card for a learner.
type LearningState string

// Learning states. A card without a stored MemoryState is implicitly StateNew.
const (
	StateNew      LearningState = "new"
	StateLearning LearningState = "learning"
	StateReview   LearningState = "review"
	StateRelearn  LearningState = "relearn"
)

// Valid reports whether s is a known learning state.
func (s LearningState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearn:
		return true
	default:
		return false
	}
}

// Grade is the learner's recall self-assessment.
type Grade string

// Grades in increasing order of recall quality.
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// Valid reports whether g is one of the four grades.
func (g Grade) Valid() bool {
	return g.Rating() != 0
}

// Rating maps the grade to its 1-4 numeric value, or 0 for an invalid grade.
func (g Grade) Rating() int {
	switch g {
	case GradeAgain:
		return 1
	case GradeHard:
		return 2
	case GradeGood:
		return 3
	case GradeEasy:
		return 4
	default:
		return 0
	}
}

// ParseGrade validates a raw grade string.
func ParseGrade(raw string) (Grade, error) {
	g := Grade(raw)
	if !g.Valid() {
		return "", NewValidationError("grade", "must be one of again, hard, good, easy", ErrInvalidGrade)
	}
	return g, nil
}

// MemoryState is the scheduler's estimate of one learner's memory of one card.
// Rows exist only once a card has been graded at least once.
type MemoryState struct {
	LearnerID      uuid.UUID     `json:"learner_id"`
	CardID         string        `json:"card_id"`
	State          LearningState `json:"state"`
	Difficulty     float64       `json:"difficulty"`
	Stability      float64       `json:"stability"`
	Retrievability float64       `json:"retrievability"`
	ElapsedDays    float64       `json:"elapsed_days"`
	ScheduledDays  float64       `json:"scheduled_days"`
	LearningSteps  int           `json:"learning_steps"`
	LastReview     *time.Time    `json:"last_review"`
	NextDue        *time.Time    `json:"next_due"`
	Lapses         int           `json:"lapses"`
	Reps           int           `json:"reps"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewMemoryState returns the canonical state of a card that has never been graded.
func NewMemoryState(learnerID uuid.UUID, cardID string, now time.Time) *MemoryState {
	due := now
	return &MemoryState{
		LearnerID: learnerID,
		CardID:    cardID,
		State:     StateNew,
		NextDue:   &due,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy, including the timestamp pointers.
func (m *MemoryState) Clone() *MemoryState {
	if m == nil {
		return nil
	}
	c := *m
	if m.LastReview != nil {
		t := *m.LastReview
		c.LastReview = &t
	}
	if m.NextDue != nil {
		t := *m.NextDue
		c.NextDue = &t
	}
	return &c
}

// IsDue reports whether the card should be reviewed at now.
func (m *MemoryState) IsDue(now time.Time) bool {
	return m.NextDue != nil && !m.NextDue.After(now)
}

// Validate checks the invariants a persisted memory state must hold.
func (m *MemoryState) Validate() error {
	if m.LearnerID == uuid.Nil {
		return NewValidationError("learner_id", "cannot be empty", ErrInvalidID)
	}
	if m.CardID == "" {
		return NewValidationError("card_id", "cannot be empty", ErrInvalidID)
	}
	if !m.State.Valid() {
		return NewValidationError("state", "is not a known learning state", ErrInvalidState)
	}
	if m.Stability < 0 || m.ElapsedDays < 0 || m.ScheduledDays < 0 {
		return NewValidationError("stability", "and day counts must not be negative", ErrValidation)
	}
	if m.Retrievability < 0 || m.Retrievability > 1 {
		return NewValidationError("retrievability", "must be within [0,1]", ErrValidation)
	}
	if m.LearningSteps < 0 || m.Lapses < 0 || m.Reps < 0 {
		return NewValidationError("counters", "must not be negative", ErrValidation)
	}
	return nil
}
