package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/kioku-api/internal/api/shared"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/service/card_review"
	"github.com/phrazzld/kioku-api/internal/service/progress"
)

// ReviewHandler serves the review queue and grading endpoints.
type ReviewHandler struct {
	reviews  card_review.CardReviewService
	progress progress.Service
	now      func() time.Time
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(
	reviews card_review.CardReviewService,
	progressService progress.Service,
	logger *slog.Logger,
) *ReviewHandler {
	if reviews == nil || progressService == nil {
		panic("review handler services cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		reviews:  reviews,
		progress: progressService,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "review_handler")),
	}
}

// GetNext handles GET /api/reviews/next.
// It returns the next card for the learner within the optional scope, or
// {"card": null} when there is nothing left to review.
func (h *ReviewHandler) GetNext(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	sc, err := scopeFromQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	candidate, err := h.reviews.Next(r.Context(), learnerID, sc, h.now())
	if errors.Is(err, card_review.ErrNoCardsDue) {
		log.Debug("review queue empty",
			slog.String("learner_id", learnerID.String()),
			slog.String("scope", sc.String()))
		shared.RespondWithJSON(w, r, http.StatusOK, EmptyQueueResponse{})
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("next review card selected",
		slog.String("learner_id", learnerID.String()),
		slog.String("card_id", candidate.Card.ID),
		slog.String("reason", string(candidate.Reason)))
	shared.RespondWithJSON(w, r, http.StatusOK, candidateToResponse(candidate))
}

// SubmitGrade handles POST /api/reviews.
// It applies the grade to the learner's memory state and returns the result.
func (h *ReviewHandler) SubmitGrade(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	var req SubmitGradeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if _, _, err := domain.ParseCardID(req.CardID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	state, err := h.reviews.ApplyGrade(r.Context(), learnerID, req.CardID, domain.Grade(req.Grade), h.now())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("grade applied",
		slog.String("learner_id", learnerID.String()),
		slog.String("card_id", req.CardID),
		slog.String("grade", req.Grade),
		slog.String("state", string(state.State)))
	shared.RespondWithJSON(w, r, http.StatusOK, SubmitGradeResponse{MemoryState: memoryStateToResponse(state)})
}

// GetStates handles GET /api/reviews/states?ids=a,b.
// Cards the learner has never graded are absent from the result.
func (h *ReviewHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	ids, err := idsFromQuery(r.URL.Query().Get("ids"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	states, err := h.progress.States(r.Context(), learnerID, ids)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load review states")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"states": states})
}

// GetHistory handles GET /api/reviews/history?cardId=.
func (h *ReviewHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	cardID := r.URL.Query().Get("cardId")
	if cardID == "" {
		HandleAPIError(w, r, domain.NewValidationError("cardId", "is required", domain.ErrValidation), "")
		return
	}

	entries, err := h.progress.History(r.Context(), learnerID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"card_id": cardID,
		"reviews": reviewLogsToResponse(entries),
	})
}
