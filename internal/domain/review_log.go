package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewLog is an immutable record of one grading event.
type ReviewLog struct {
	ID         uuid.UUID     `json:"id"`
	LearnerID  uuid.UUID     `json:"learner_id"`
	CardID     string        `json:"card_id"`
	ReviewedAt time.Time     `json:"reviewed_at"`
	Grade      Grade         `json:"grade"`
	State      LearningState `json:"state"` // state before the grade was applied
	Elapsed    float64       `json:"elapsed"`
	Scheduled  float64       `json:"scheduled"`
}

// Validate checks that a log entry is complete before it is appended.
func (l *ReviewLog) Validate() error {
	if l.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if l.LearnerID == uuid.Nil {
		return NewValidationError("learner_id", "cannot be empty", ErrInvalidID)
	}
	if l.CardID == "" {
		return NewValidationError("card_id", "cannot be empty", ErrInvalidID)
	}
	if !l.Grade.Valid() {
		return NewValidationError("grade", "is not a valid grade", ErrInvalidGrade)
	}
	if l.ReviewedAt.IsZero() {
		return NewValidationError("reviewed_at", "cannot be zero", ErrValidation)
	}
	return nil
}
