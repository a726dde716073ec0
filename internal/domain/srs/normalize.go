package srs

import (
	"math"

	"github.com/phrazzld/kioku-api/internal/domain"
)

// Normalize returns a copy of state that the model can always consume.
//
// Stored rows may be partial or corrupt. Rather than failing a review over a
// bad number, missing or unusable numeric fields are read as 0 and an unknown
// learning state is read as new. This leniency applies only to numbers and the
// state label; identity fields are copied as-is.
func Normalize(state *domain.MemoryState) *domain.MemoryState {
	n := state.Clone()
	if !n.State.Valid() {
		n.State = domain.StateNew
	}
	n.Difficulty = nonNegative(n.Difficulty)
	n.Stability = nonNegative(n.Stability)
	n.Retrievability = math.Min(nonNegative(n.Retrievability), 1)
	n.ElapsedDays = nonNegative(n.ElapsedDays)
	n.ScheduledDays = nonNegative(n.ScheduledDays)
	n.LearningSteps = max(n.LearningSteps, 0)
	n.Lapses = max(n.Lapses, 0)
	n.Reps = max(n.Reps, 0)
	return n
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
