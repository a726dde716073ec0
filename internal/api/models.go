package api

import (
	"time"

	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/service/card_review"
)

// SubmitGradeRequest is the payload of POST /api/reviews.
type SubmitGradeRequest struct {
	CardID string `json:"card_id" validate:"required,max=256"`
	Grade  string `json:"grade"   validate:"required,oneof=again hard good easy"`
}

// CardResponse is the client view of a card.
type CardResponse struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Term   string   `json:"term"`
	Levels []string `json:"levels"`
}

// MemoryStateResponse is the client view of a learner's memory of a card.
type MemoryStateResponse struct {
	CardID         string     `json:"card_id"`
	State          string     `json:"state"`
	Difficulty     float64    `json:"difficulty"`
	Stability      float64    `json:"stability"`
	Retrievability float64    `json:"retrievability"`
	ElapsedDays    float64    `json:"elapsed_days"`
	ScheduledDays  float64    `json:"scheduled_days"`
	LearningSteps  int        `json:"learning_steps"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	LastReview     *time.Time `json:"last_review"`
	NextDue        *time.Time `json:"next_due"`
}

// NextReviewResponse is returned by GET /api/reviews/next when a card is
// available. MemoryState is null for a card the learner has never graded.
type NextReviewResponse struct {
	Card        *CardResponse        `json:"card"`
	MemoryState *MemoryStateResponse `json:"memory_state"`
	Reason      string               `json:"reason"`
}

// EmptyQueueResponse is returned by GET /api/reviews/next when nothing is
// due and no new card is left in scope.
type EmptyQueueResponse struct {
	Card *CardResponse `json:"card"`
}

// SubmitGradeResponse is returned by POST /api/reviews.
type SubmitGradeResponse struct {
	MemoryState *MemoryStateResponse `json:"memory_state"`
}

// ReviewLogResponse is one entry of a card's review history.
type ReviewLogResponse struct {
	ID         string    `json:"id"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Grade      string    `json:"grade"`
	State      string    `json:"state"`
	Elapsed    float64   `json:"elapsed_days"`
	Scheduled  float64   `json:"scheduled_days"`
}

// LevelResponse describes one curated level and its effective order.
type LevelResponse struct {
	Taxonomy string   `json:"taxonomy"`
	Level    string   `json:"level"`
	Name     string   `json:"name,omitempty"`
	Source   string   `json:"source"`
	Terms    []string `json:"terms"`
}

func cardToResponse(card *domain.Card) *CardResponse {
	if card == nil {
		return nil
	}
	levels := card.Levels
	if levels == nil {
		levels = []string{}
	}
	return &CardResponse{
		ID:     card.ID,
		Type:   string(card.Type),
		Term:   card.Term,
		Levels: levels,
	}
}

func memoryStateToResponse(m *domain.MemoryState) *MemoryStateResponse {
	if m == nil {
		return nil
	}
	return &MemoryStateResponse{
		CardID:         m.CardID,
		State:          string(m.State),
		Difficulty:     m.Difficulty,
		Stability:      m.Stability,
		Retrievability: m.Retrievability,
		ElapsedDays:    m.ElapsedDays,
		ScheduledDays:  m.ScheduledDays,
		LearningSteps:  m.LearningSteps,
		Reps:           m.Reps,
		Lapses:         m.Lapses,
		LastReview:     m.LastReview,
		NextDue:        m.NextDue,
	}
}

func candidateToResponse(c *card_review.Candidate) *NextReviewResponse {
	return &NextReviewResponse{
		Card:        cardToResponse(c.Card),
		MemoryState: memoryStateToResponse(c.State),
		Reason:      string(c.Reason),
	}
}

func reviewLogsToResponse(entries []*domain.ReviewLog) []ReviewLogResponse {
	out := make([]ReviewLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReviewLogResponse{
			ID:         e.ID.String(),
			ReviewedAt: e.ReviewedAt,
			Grade:      string(e.Grade),
			State:      string(e.State),
			Elapsed:    e.Elapsed,
			Scheduled:  e.Scheduled,
		})
	}
	return out
}
