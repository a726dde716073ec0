package srs

import (
	"math"
	"time"

	"github.com/phrazzld/kioku-api/internal/domain"
)

const (
	minStability  = 0.001
	minDifficulty = 1.0
	maxDifficulty = 10.0
	day           = 24 * time.Hour
)

// model holds the parameters together with the constants derived from them.
type model struct {
	params Params
	decay  float64 // -w20
	factor float64 // 0.9^(1/decay) - 1
}

func newModel(p Params) *model {
	decay := -p.Weights[20]
	return &model{
		params: p,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
//
// Parameters:
//   - elapsedDays: days since the last review
//   - stability: current stability in days
//
// Returns a probability in (0, 1]; 0 when stability is not positive.
func (m *model) retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// initStability returns S0(G) = w[G-1].
func (m *model) initStability(rating int) float64 {
	return clampStability(m.params.Weights[rating-1])
}

// initDifficulty returns D0(G) = w4 - e^(w5*(G-1)) + 1, optionally clamped to [1, 10].
func (m *model) initDifficulty(rating int, clamp bool) float64 {
	w := m.params.Weights
	d := w[4] - math.Exp(w[5]*float64(rating-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval inverts the forgetting curve for the desired retention.
//
// I(r, S) = round(S / factor * (r^(1/decay) - 1)), clamped to [1, MaximumInterval].
func (m *model) nextInterval(stability float64) int {
	ivl := stability / m.factor * (math.Pow(m.params.DesiredRetention, 1.0/m.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > m.params.MaximumInterval {
		days = m.params.MaximumInterval
	}
	return days
}

// shortTermStability handles reviews less than a day apart.
//
// SInc = e^(w17*(G-3+w18)) * S^(-w19), floored at 1 for good and easy.
func (m *model) shortTermStability(stability float64, rating int) float64 {
	w := m.params.Weights
	sInc := math.Exp(w[17]*(float64(rating)-3+w[18])) * math.Pow(stability, -w[19])
	if rating >= domain.GradeGood.Rating() {
		sInc = math.Max(sInc, 1.0)
	}
	return clampStability(stability * sInc)
}

// nextDifficulty applies linear damping and mean reversion toward D0(easy).
//
// ΔD = -w6*(G-3); D' = D + (10-D)*ΔD/9; D'' = w7*D0(4) + (1-w7)*D'.
func (m *model) nextDifficulty(difficulty float64, rating int) float64 {
	w := m.params.Weights
	delta := -w[6] * (float64(rating) - 3)
	damped := difficulty + (maxDifficulty-difficulty)*delta/9
	target := m.initDifficulty(domain.GradeEasy.Rating(), false)
	return clampDifficulty(w[7]*target + (1-w[7])*damped)
}

// nextRecallStability grows stability after a successful recall.
//
// S' = S * (1 + e^w8 * (11-D) * S^(-w9) * (e^((1-R)*w10) - 1) * hardPenalty * easyBonus)
func (m *model) nextRecallStability(d, s, r float64, rating int) float64 {
	w := m.params.Weights
	hardPenalty := 1.0
	if rating == domain.GradeHard.Rating() {
		hardPenalty = w[15]
	}
	easyBonus := 1.0
	if rating == domain.GradeEasy.Rating() {
		easyBonus = w[16]
	}
	return clampStability(s * (1 + math.Exp(w[8])*
		(11-d)*
		math.Pow(s, -w[9])*
		(math.Exp((1-r)*w[10])-1)*
		hardPenalty*easyBonus))
}

// nextForgetStability computes stability after a lapse.
//
// S' = min(w11 * D^(-w12) * ((S+1)^w13 - 1) * e^((1-R)*w14), S / e^(w17*w18))
func (m *model) nextForgetStability(d, s, r float64) float64 {
	w := m.params.Weights
	long := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp((1-r)*w[14])
	short := s / math.Exp(w[17]*w[18])
	return clampStability(math.Min(long, short))
}

// updateMemory computes the new difficulty and stability for a graded card.
// First reviews, and priors without a usable stability, start from the
// initial estimates for the grade.
func (m *model) updateMemory(prior *domain.MemoryState, rating int, elapsedDays float64) (difficulty, stability float64) {
	if prior.State == domain.StateNew || prior.Stability <= 0 {
		return m.initDifficulty(rating, true), m.initStability(rating)
	}

	d := clampDifficulty(prior.Difficulty)
	s := prior.Stability
	switch {
	case elapsedDays < 1:
		stability = m.shortTermStability(s, rating)
	case rating == domain.GradeAgain.Rating():
		stability = m.nextForgetStability(d, s, m.retrievability(elapsedDays, s))
	default:
		stability = m.nextRecallStability(d, s, m.retrievability(elapsedDays, s), rating)
	}
	return m.nextDifficulty(d, rating), stability
}

// transition advances the learning state of next (already carrying the prior
// state, step and lapses) and returns the interval until the next review.
func (m *model) transition(next *domain.MemoryState, grade domain.Grade) time.Duration {
	switch next.State {
	case domain.StateNew:
		next.State = domain.StateLearning
		next.LearningSteps = 0
		return m.stepTransition(next, grade, m.params.LearningSteps, true)
	case domain.StateLearning:
		return m.stepTransition(next, grade, m.params.LearningSteps, false)
	case domain.StateRelearn:
		return m.stepTransition(next, grade, m.params.RelearningSteps, false)
	default:
		return m.reviewTransition(next, grade)
	}
}

// stepTransition moves a card through the short learning or relearning steps.
// A first review never leaves learning: when it would graduate, the steps are
// marked exhausted instead so the next good or easy grade promotes the card.
func (m *model) stepTransition(next *domain.MemoryState, grade domain.Grade, steps []time.Duration, first bool) time.Duration {
	step := next.LearningSteps

	graduate := func() time.Duration {
		if first {
			next.LearningSteps = len(steps)
		} else {
			next.State = domain.StateReview
			next.LearningSteps = 0
		}
		return m.dayInterval(next.Stability)
	}

	switch grade {
	case domain.GradeAgain:
		next.LearningSteps = 0
		return steps[0]
	case domain.GradeHard:
		if step >= len(steps) {
			return m.dayInterval(next.Stability)
		}
		if step == 0 {
			if len(steps) == 1 {
				return steps[0] * 3 / 2
			}
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]
	case domain.GradeGood:
		if step+1 >= len(steps) {
			return graduate()
		}
		next.LearningSteps = step + 1
		return steps[step+1]
	default:
		return graduate()
	}
}

// reviewTransition handles cards in the review state. A lapse moves the card
// to relearning and counts against it.
func (m *model) reviewTransition(next *domain.MemoryState, grade domain.Grade) time.Duration {
	next.LearningSteps = 0
	if grade == domain.GradeAgain {
		next.State = domain.StateRelearn
		next.Lapses++
		return m.params.RelearningSteps[0]
	}
	next.State = domain.StateReview
	return m.dayInterval(next.Stability)
}

func (m *model) dayInterval(stability float64) time.Duration {
	return time.Duration(m.nextInterval(stability)) * day
}

// apply is the pure update: it never mutates prior and reads no clock.
func (m *model) apply(prior *domain.MemoryState, grade domain.Grade, now time.Time) (*domain.MemoryState, *domain.ReviewLog) {
	rating := grade.Rating()
	next := prior.Clone()

	var elapsedDays float64
	if prior.LastReview != nil {
		elapsedDays = math.Max(0, now.Sub(*prior.LastReview).Hours()/24)
	}

	next.Difficulty, next.Stability = m.updateMemory(prior, rating, elapsedDays)

	interval := m.transition(next, grade)
	if limit := time.Duration(m.params.MaximumInterval) * day; interval > limit {
		interval = limit
	}
	scheduledDays := interval.Hours() / 24
	due := now.Add(interval)
	reviewed := now

	next.ElapsedDays = elapsedDays
	next.ScheduledDays = scheduledDays
	next.Retrievability = m.retrievability(scheduledDays, next.Stability)
	next.LastReview = &reviewed
	next.NextDue = &due
	next.Reps++
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	log := &domain.ReviewLog{
		LearnerID:  prior.LearnerID,
		CardID:     prior.CardID,
		ReviewedAt: now,
		Grade:      grade,
		State:      prior.State,
		Elapsed:    elapsedDays,
		Scheduled:  scheduledDays,
	}
	return next, log
}

func clampStability(s float64) float64 {
	if math.IsNaN(s) {
		return minStability
	}
	return math.Max(s, minStability)
}

func clampDifficulty(d float64) float64 {
	if math.IsNaN(d) {
		return minDifficulty
	}
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
