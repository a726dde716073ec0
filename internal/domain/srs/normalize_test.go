package srs

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	learner := uuid.New()
	last := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	in := &domain.MemoryState{
		LearnerID:      learner,
		CardID:         "vocab:猫",
		State:          "mystery",
		Difficulty:     math.NaN(),
		Stability:      -1,
		Retrievability: 3,
		ElapsedDays:    math.Inf(-1),
		ScheduledDays:  2.5,
		LearningSteps:  -1,
		Lapses:         -5,
		Reps:           4,
		LastReview:     &last,
	}

	out := Normalize(in)

	assert.Equal(t, domain.StateNew, out.State)
	assert.Zero(t, out.Difficulty)
	assert.Zero(t, out.Stability)
	assert.Equal(t, 1.0, out.Retrievability)
	assert.Zero(t, out.ElapsedDays)
	assert.Equal(t, 2.5, out.ScheduledDays)
	assert.Zero(t, out.LearningSteps)
	assert.Zero(t, out.Lapses)
	assert.Equal(t, 4, out.Reps)
	assert.Equal(t, learner, out.LearnerID)
	assert.Equal(t, "vocab:猫", out.CardID)
	assert.Equal(t, last, *out.LastReview)

	// Input is untouched.
	assert.Equal(t, domain.LearningState("mystery"), in.State)
	assert.Equal(t, -1.0, in.Stability)
}

func TestNormalize_ValidStateUnchanged(t *testing.T) {
	in := domain.NewMemoryState(uuid.New(), "kanji:水", time.Now())
	in.State = domain.StateRelearn
	in.Stability = 4.2
	in.Difficulty = 6.1

	assert.Equal(t, in, Normalize(in))
}
