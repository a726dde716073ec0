// Package srs implements the memory model that turns a recall grade into the
// next memory state and due date. Everything here is pure: no I/O, no clock,
// no randomness.
package srs

import (
	"errors"
	"math"
	"time"

	"github.com/phrazzld/kioku-api/internal/domain"
)

// Common errors
var (
	ErrNilState = errors.New("memory state cannot be nil")

	// ErrInvalidGrade wraps domain.ErrInvalidGrade so callers can match either.
	ErrInvalidGrade = domain.ErrInvalidGrade
)

// Service defines the memory model operations.
type Service interface {
	// Update applies grade to prior at now. It returns the next state and the
	// log entry describing the event; prior is not modified. The log entry has
	// no ID yet; the caller assigns one when persisting it.
	Update(
		prior *domain.MemoryState,
		grade domain.Grade,
		now time.Time,
	) (*domain.MemoryState, *domain.ReviewLog, error)

	// Retrievability returns the modeled probability of recall at now,
	// or 0 for a card that has never been reviewed.
	Retrievability(state *domain.MemoryState, now time.Time) float64

	// Params returns a copy of the parameters in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	model *model
}

// NewDefaultService creates a new memory model with default parameters
func NewDefaultService() Service {
	return &defaultService{model: newModel(*NewDefaultParams())}
}

// NewServiceWithParams creates a memory model with custom parameters.
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return NewDefaultService(), nil
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{model: newModel(*params)}, nil
}

// Update implements Service.
func (s *defaultService) Update(
	prior *domain.MemoryState,
	grade domain.Grade,
	now time.Time,
) (*domain.MemoryState, *domain.ReviewLog, error) {
	if prior == nil {
		return nil, nil, ErrNilState
	}
	if !grade.Valid() {
		return nil, nil, domain.NewValidationError("grade", "must be one of again, hard, good, easy", ErrInvalidGrade)
	}

	next, log := s.model.apply(Normalize(prior), grade, now)
	return next, log, nil
}

// Retrievability implements Service.
func (s *defaultService) Retrievability(state *domain.MemoryState, now time.Time) float64 {
	if state == nil || state.LastReview == nil {
		return 0
	}
	n := Normalize(state)
	elapsed := math.Max(0, now.Sub(*n.LastReview).Hours()/24)
	return s.model.retrievability(elapsed, n.Stability)
}

// Params implements Service.
func (s *defaultService) Params() Params {
	p := s.model.params
	p.LearningSteps = append([]time.Duration(nil), p.LearningSteps...)
	p.RelearningSteps = append([]time.Duration(nil), p.RelearningSteps...)
	return p
}
