package srs_test

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/domain/srs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseTime  = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	allGrades = []domain.Grade{domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy}
)

func newState(now time.Time) *domain.MemoryState {
	return domain.NewMemoryState(uuid.New(), "kanji:日", now)
}

func reviewState(stability float64, lastReview time.Time) *domain.MemoryState {
	ms := newState(lastReview)
	due := lastReview.Add(time.Duration(stability*24) * time.Hour)
	ms.State = domain.StateReview
	ms.Stability = stability
	ms.Difficulty = 5
	ms.LastReview = &lastReview
	ms.NextDue = &due
	ms.ScheduledDays = stability
	ms.Reps = 6
	ms.Lapses = 1
	return ms
}

func TestUpdate_NewCardGoodScenario(t *testing.T) {
	svc := srs.NewDefaultService()
	prior := newState(baseTime)

	next, log, err := svc.Update(prior, domain.GradeGood, baseTime)
	require.NoError(t, err)

	assert.Equal(t, domain.StateLearning, next.State)
	assert.Equal(t, 1, next.Reps)
	assert.Equal(t, 0, next.Lapses)
	assert.Equal(t, 1, next.LearningSteps)
	require.NotNil(t, next.NextDue)
	assert.Equal(t, baseTime.Add(10*time.Minute), *next.NextDue, "second learning step")
	require.NotNil(t, next.LastReview)
	assert.Equal(t, baseTime, *next.LastReview)
	assert.Equal(t, srs.DefaultWeights[2], next.Stability)
	assert.InDelta(t, 10.0/1440.0, next.ScheduledDays, 1e-12)
	assert.Zero(t, next.ElapsedDays)
	assert.Equal(t, baseTime, next.UpdatedAt)

	assert.Equal(t, prior.LearnerID, log.LearnerID)
	assert.Equal(t, prior.CardID, log.CardID)
	assert.Equal(t, domain.GradeGood, log.Grade)
	assert.Equal(t, domain.StateNew, log.State)
	assert.Equal(t, baseTime, log.ReviewedAt)
	assert.Zero(t, log.Elapsed)
	assert.Equal(t, next.ScheduledDays, log.Scheduled)
	assert.Equal(t, uuid.Nil, log.ID, "id is assigned when the log is persisted")
}

func TestUpdate_ReviewLapseScenario(t *testing.T) {
	svc := srs.NewDefaultService()
	last := baseTime.Add(-20 * 24 * time.Hour)
	prior := reviewState(20, last)

	next, log, err := svc.Update(prior, domain.GradeAgain, baseTime)
	require.NoError(t, err)

	assert.Equal(t, domain.StateRelearn, next.State)
	assert.Equal(t, prior.Lapses+1, next.Lapses)
	assert.Equal(t, prior.Reps+1, next.Reps)
	assert.Equal(t, baseTime.Add(10*time.Minute), *next.NextDue)
	assert.Less(t, next.NextDue.Sub(baseTime), 20*24*time.Hour)
	assert.Less(t, next.Stability, prior.Stability)
	assert.InDelta(t, 20.0, log.Elapsed, 1e-9)
	assert.Equal(t, domain.StateReview, log.State)
}

func TestUpdate_GraduationPaths(t *testing.T) {
	svc := srs.NewDefaultService()

	t.Run("good through both learning steps", func(t *testing.T) {
		s1, _, err := svc.Update(newState(baseTime), domain.GradeGood, baseTime)
		require.NoError(t, err)
		require.Equal(t, domain.StateLearning, s1.State)

		now := *s1.NextDue
		s2, _, err := svc.Update(s1, domain.GradeGood, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, s2.State)
		assert.Equal(t, 0, s2.LearningSteps)
		assert.GreaterOrEqual(t, s2.ScheduledDays, 1.0)
	})

	t.Run("easy on a new card stays in learning with steps exhausted", func(t *testing.T) {
		s1, _, err := svc.Update(newState(baseTime), domain.GradeEasy, baseTime)
		require.NoError(t, err)
		assert.Equal(t, domain.StateLearning, s1.State)
		assert.Equal(t, 2, s1.LearningSteps)
		assert.GreaterOrEqual(t, s1.ScheduledDays, 1.0, "easy schedules in days")

		s2, _, err := svc.Update(s1, domain.GradeHard, *s1.NextDue)
		require.NoError(t, err)
		assert.Equal(t, domain.StateLearning, s2.State, "hard never graduates")

		s3, _, err := svc.Update(s2, domain.GradeGood, *s2.NextDue)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, s3.State)
	})

	t.Run("again restarts learning steps", func(t *testing.T) {
		s1, _, err := svc.Update(newState(baseTime), domain.GradeGood, baseTime)
		require.NoError(t, err)
		s2, _, err := svc.Update(s1, domain.GradeAgain, *s1.NextDue)
		require.NoError(t, err)
		assert.Equal(t, domain.StateLearning, s2.State)
		assert.Equal(t, 0, s2.LearningSteps)
		assert.Equal(t, s1.NextDue.Add(time.Minute), *s2.NextDue)
		assert.Equal(t, 0, s2.Lapses, "lapses only count review failures")
	})

	t.Run("relearn graduates back to review on good", func(t *testing.T) {
		lapsed, _, err := svc.Update(reviewState(20, baseTime.Add(-20*24*time.Hour)), domain.GradeAgain, baseTime)
		require.NoError(t, err)
		require.Equal(t, domain.StateRelearn, lapsed.State)

		back, _, err := svc.Update(lapsed, domain.GradeGood, *lapsed.NextDue)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, back.State)
		assert.Equal(t, lapsed.Lapses, back.Lapses)
	})
}

func TestUpdate_HardLearningIntervals(t *testing.T) {
	svc := srs.NewDefaultService()
	next, _, err := svc.Update(newState(baseTime), domain.GradeHard, baseTime)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(330*time.Second), *next.NextDue, "average of the first two steps")

	p := srs.NewDefaultParams()
	p.LearningSteps = []time.Duration{10 * time.Minute}
	single, err := srs.NewServiceWithParams(p)
	require.NoError(t, err)
	next, _, err = single.Update(newState(baseTime), domain.GradeHard, baseTime)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(15*time.Minute), *next.NextDue, "single step is stretched by half")
}

func TestUpdate_InvalidGrade(t *testing.T) {
	svc := srs.NewDefaultService()
	prior := newState(baseTime)

	for _, g := range []domain.Grade{"", "perfect", "Good"} {
		next, log, err := svc.Update(prior, g, baseTime)
		assert.ErrorIs(t, err, srs.ErrInvalidGrade, "grade %q", g)
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
		assert.Nil(t, next)
		assert.Nil(t, log)
	}

	_, _, err := svc.Update(nil, domain.GradeGood, baseTime)
	assert.ErrorIs(t, err, srs.ErrNilState)
}

func TestUpdate_DoesNotMutatePrior(t *testing.T) {
	svc := srs.NewDefaultService()
	prior := reviewState(12, baseTime.Add(-5*24*time.Hour))
	snapshot := prior.Clone()

	_, _, err := svc.Update(prior, domain.GradeEasy, baseTime)
	require.NoError(t, err)
	assert.Equal(t, snapshot, prior)
}

func TestUpdate_Deterministic(t *testing.T) {
	svc := srs.NewDefaultService()
	prior := reviewState(3.7, baseTime.Add(-4*24*time.Hour-17*time.Minute))

	for _, g := range allGrades {
		a, logA, err := svc.Update(prior, g, baseTime)
		require.NoError(t, err)
		b, logB, err := svc.Update(prior, g, baseTime)
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Equal(t, logA, logB)
		assert.Equal(t, math.Float64bits(a.Stability), math.Float64bits(b.Stability))
		assert.Equal(t, math.Float64bits(a.Difficulty), math.Float64bits(b.Difficulty))
	}
}

func TestUpdate_NormalizesCorruptPrior(t *testing.T) {
	svc := srs.NewDefaultService()
	last := baseTime.Add(-3 * 24 * time.Hour)
	prior := &domain.MemoryState{
		LearnerID:     uuid.New(),
		CardID:        "kanji:月",
		State:         domain.StateReview,
		Difficulty:    math.NaN(),
		Stability:     math.Inf(1),
		ElapsedDays:   -4,
		LearningSteps: -2,
		Reps:          -1,
		Lapses:        -3,
		LastReview:    &last,
	}

	next, _, err := svc.Update(prior, domain.GradeGood, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Reps)
	assert.Equal(t, 0, next.Lapses)
	assert.False(t, math.IsNaN(next.Stability))
	assert.False(t, math.IsNaN(next.Difficulty))
	assert.Greater(t, next.Stability, 0.0)
	assert.GreaterOrEqual(t, next.Difficulty, 1.0)
	assert.LessOrEqual(t, next.Difficulty, 10.0)
}

// allowedTransitions lists every reachable (from, grade) -> to edge.
var allowedTransitions = map[domain.LearningState]map[domain.Grade][]domain.LearningState{
	domain.StateNew: {
		domain.GradeAgain: {domain.StateLearning},
		domain.GradeHard:  {domain.StateLearning},
		domain.GradeGood:  {domain.StateLearning},
		domain.GradeEasy:  {domain.StateLearning},
	},
	domain.StateLearning: {
		domain.GradeAgain: {domain.StateLearning},
		domain.GradeHard:  {domain.StateLearning},
		domain.GradeGood:  {domain.StateLearning, domain.StateReview},
		domain.GradeEasy:  {domain.StateReview},
	},
	domain.StateReview: {
		domain.GradeAgain: {domain.StateRelearn},
		domain.GradeHard:  {domain.StateReview},
		domain.GradeGood:  {domain.StateReview},
		domain.GradeEasy:  {domain.StateReview},
	},
	domain.StateRelearn: {
		domain.GradeAgain: {domain.StateRelearn},
		domain.GradeHard:  {domain.StateRelearn},
		domain.GradeGood:  {domain.StateRelearn, domain.StateReview},
		domain.GradeEasy:  {domain.StateReview},
	},
}

func randomPrior(rng *rand.Rand, now time.Time) *domain.MemoryState {
	states := []domain.LearningState{domain.StateNew, domain.StateLearning, domain.StateReview, domain.StateRelearn}
	ms := newState(now)
	ms.State = states[rng.IntN(len(states))]
	if ms.State == domain.StateNew {
		return ms
	}
	last := now.Add(-time.Duration(rng.Float64()*400*24) * time.Hour)
	due := last.Add(time.Duration(rng.Float64()*100*24) * time.Hour)
	ms.LastReview = &last
	ms.NextDue = &due
	ms.Stability = rng.Float64() * 500
	ms.Difficulty = 1 + rng.Float64()*9
	ms.LearningSteps = rng.IntN(4)
	ms.Reps = rng.IntN(50)
	ms.Lapses = rng.IntN(10)
	return ms
}

func TestUpdate_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	p := srs.NewDefaultParams()
	svc := srs.NewDefaultService()
	maxInterval := time.Duration(p.MaximumInterval) * 24 * time.Hour

	for i := 0; i < 2000; i++ {
		now := baseTime.Add(time.Duration(rng.IntN(1000)) * time.Hour)
		prior := randomPrior(rng, now)
		grade := allGrades[rng.IntN(len(allGrades))]

		next, log, err := svc.Update(prior, grade, now)
		require.NoError(t, err)

		assert.Contains(t, allowedTransitions[prior.State][grade], next.State,
			"%s --%s--> %s", prior.State, grade, next.State)

		require.NotNil(t, next.NextDue)
		assert.False(t, next.NextDue.Before(now), "due before now")
		assert.LessOrEqual(t, next.NextDue.Sub(now), maxInterval)

		assert.Equal(t, prior.Reps+1, next.Reps)
		assert.GreaterOrEqual(t, next.Lapses, prior.Lapses)
		if prior.State == domain.StateReview && grade == domain.GradeAgain {
			assert.Equal(t, prior.Lapses+1, next.Lapses)
		} else {
			assert.Equal(t, prior.Lapses, next.Lapses)
		}

		assert.GreaterOrEqual(t, next.Retrievability, 0.0)
		assert.LessOrEqual(t, next.Retrievability, 1.0)
		assert.GreaterOrEqual(t, next.Difficulty, 1.0)
		assert.LessOrEqual(t, next.Difficulty, 10.0)
		assert.Greater(t, next.Stability, 0.0)
		assert.Equal(t, next.ScheduledDays, log.Scheduled)
		assert.GreaterOrEqual(t, log.Elapsed, 0.0)
		if next.State == domain.StateReview {
			assert.Equal(t, 0, next.LearningSteps)
		}
	}
}

func TestRetrievability(t *testing.T) {
	svc := srs.NewDefaultService()

	assert.Zero(t, svc.Retrievability(nil, baseTime))
	assert.Zero(t, svc.Retrievability(newState(baseTime), baseTime))

	ms := reviewState(10, baseTime)
	assert.InDelta(t, 1.0, svc.Retrievability(ms, baseTime), 1e-12)
	assert.InDelta(t, 0.9, svc.Retrievability(ms, baseTime.Add(10*24*time.Hour)), 1e-9)
}

func TestParamsCopy(t *testing.T) {
	svc := srs.NewDefaultService()
	p := svc.Params()
	p.LearningSteps[0] = time.Hour
	assert.Equal(t, time.Minute, svc.Params().LearningSteps[0])
}
