// Package card_review selects the next card a learner should study and
// records grades against the memory model.
package card_review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// Reason explains why a card was selected.
type Reason string

// Selection reasons.
const (
	ReasonDue Reason = "due"
	ReasonNew Reason = "new"
)

// Candidate is the card the queue selected. State is nil for a card the
// learner has never graded.
type Candidate struct {
	Card   *domain.Card        `json:"card"`
	State  *domain.MemoryState `json:"memory_state"`
	Reason Reason              `json:"reason"`
}

// CardReviewService provides the review queue and grade recording.
type CardReviewService interface {
	// Next returns the card the learner should review at now.
	//
	// Due cards always win over new ones: among the learner's states due at
	// now and inside scope, the earliest next_due wins, ties broken by card
	// id. Only when nothing is due is an untouched card picked, in the scope's
	// priority order, or by term when there is no scope.
	//
	// Returns ErrNoCardsDue when neither pass yields a card, including for
	// an invalid scope. The call is read-only apart from provisioning card
	// stubs for custom deck items.
	Next(ctx context.Context, learnerID uuid.UUID, scope *domain.Scope, now time.Time) (*Candidate, error)

	// ApplyGrade records one review of cardID at now.
	//
	// The memory state upsert and the review log insert happen in one
	// transaction, so either both are stored or neither is. Every call is a
	// separate review event; two calls advance the state twice.
	//
	// Returns:
	//   - ErrInvalidGrade when grade is not again, hard, good or easy
	//   - ErrCardNotFound when the card does not exist
	//   - a *ServiceError wrapping the storage failure otherwise
	ApplyGrade(
		ctx context.Context,
		learnerID uuid.UUID,
		cardID string,
		grade domain.Grade,
		now time.Time,
	) (*domain.MemoryState, error)
}

// Common error types for CardReviewService
var (
	// ErrNoCardsDue indicates that the queue has nothing to offer.
	ErrNoCardsDue = errors.New("no cards due for review")

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidGrade indicates an unknown grade was submitted.
	ErrInvalidGrade = domain.ErrInvalidGrade

	// ErrInvalidScope indicates a scope missing its required parts.
	ErrInvalidScope = domain.ErrInvalidScope
)

// ServiceError wraps errors from the card review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "next", "apply_grade")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewNextError returns a new ServiceError for the next operation.
func NewNextError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "next",
		Message:   message,
		Err:       err,
	}
}

// NewApplyGradeError returns a new ServiceError for the apply_grade operation.
func NewApplyGradeError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "apply_grade",
		Message:   message,
		Err:       err,
	}
}
