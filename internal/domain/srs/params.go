package srs

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

// ErrInvalidParams is returned when a scheduler configuration cannot be used.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// DefaultWeights are the 21 FSRS-6 model weights fitted on the public review dataset.
var DefaultWeights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, 6.4133, 0.8334, 3.0194, 0.001, 1.8722, 0.1666,
	0.796, 1.4835, 0.0614, 0.2629, 1.6483, 0.6014, 1.8729, 0.5425, 0.0912, 0.0658,
	0.1542,
}

// Default scheduling targets.
const (
	DefaultDesiredRetention = 0.9
	DefaultMaximumInterval  = 3650
)

// Params defines all configurable parameters for the memory model.
type Params struct {
	// Model weights w0..w20
	Weights [21]float64

	// Target probability of recall at the scheduled due date
	DesiredRetention float64

	// Upper bound for review intervals, in days
	MaximumInterval int

	// Short fixed steps for new/learning cards and for relearning after a lapse
	LearningSteps   []time.Duration
	RelearningSteps []time.Duration
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Weights          []float64
	DesiredRetention float64
	MaximumInterval  int
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Weights:          DefaultWeights,
		DesiredRetention: DefaultDesiredRetention,
		MaximumInterval:  DefaultMaximumInterval,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// NewParams creates Params from config, filling unset fields with defaults,
// and validates the result.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.Weights) > 0 {
		if len(config.Weights) != len(params.Weights) {
			return nil, fmt.Errorf("%w: expected %d weights, got %d",
				ErrInvalidParams, len(params.Weights), len(config.Weights))
		}
		copy(params.Weights[:], config.Weights)
	}
	if config.DesiredRetention != 0 {
		params.DesiredRetention = config.DesiredRetention
	}
	if config.MaximumInterval != 0 {
		params.MaximumInterval = config.MaximumInterval
	}
	if len(config.LearningSteps) > 0 {
		params.LearningSteps = slices.Clone(config.LearningSteps)
	}
	if len(config.RelearningSteps) > 0 {
		params.RelearningSteps = slices.Clone(config.RelearningSteps)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the parameters describe a usable model.
// Steps must be shorter than a day so the short phase never outruns the
// day-based review intervals.
func (p *Params) Validate() error {
	for i, w := range p.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is not finite", ErrInvalidParams, i)
		}
	}
	if p.Weights[20] <= 0 {
		return fmt.Errorf("%w: decay weight must be positive", ErrInvalidParams)
	}
	for i := 0; i < 4; i++ {
		if p.Weights[i] <= 0 {
			return fmt.Errorf("%w: initial stability weight %d must be positive", ErrInvalidParams, i)
		}
	}
	if p.DesiredRetention <= 0 || p.DesiredRetention >= 1 {
		return fmt.Errorf("%w: desired retention %v out of range (0, 1)", ErrInvalidParams, p.DesiredRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %d must be at least 1 day", ErrInvalidParams, p.MaximumInterval)
	}
	if err := validateSteps("learning", p.LearningSteps); err != nil {
		return err
	}
	return validateSteps("relearning", p.RelearningSteps)
}

func validateSteps(name string, steps []time.Duration) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: at least one %s step is required", ErrInvalidParams, name)
	}
	for _, s := range steps {
		if s <= 0 || s >= 24*time.Hour {
			return fmt.Errorf("%w: %s step %s must be between 0 and 24h", ErrInvalidParams, name, s)
		}
	}
	return nil
}
