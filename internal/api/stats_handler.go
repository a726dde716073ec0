package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/kioku-api/internal/api/shared"
	"github.com/phrazzld/kioku-api/internal/domain"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/service/progress"
)

// StatsHandler serves read-only progress statistics.
type StatsHandler struct {
	progress progress.Service
	now      func() time.Time
	logger   *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(progressService progress.Service, logger *slog.Logger) *StatsHandler {
	if progressService == nil {
		panic("progress service cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for StatsHandler")
	}
	return &StatsHandler{
		progress: progressService,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "stats_handler")),
	}
}

// GetDashboard handles GET /api/stats/dashboard.
func (h *StatsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	dashboard, err := h.progress.Dashboard(r.Context(), learnerID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load dashboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, dashboard)
}

// GetScope handles GET /api/stats/scope?taxonomy=&level=&deckId=.
// A scope is required here; omitting it is a bad request.
func (h *StatsHandler) GetScope(w http.ResponseWriter, r *http.Request) {
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
	if sc == nil {
		HandleAPIError(w, r,
			domain.NewValidationError("scope", "needs taxonomy and level, or taxonomy=custom and deckId",
				domain.ErrInvalidScope), "")
		return
	}

	stats, err := h.progress.ScopeStats(r.Context(), learnerID, sc)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetLevels handles GET /api/stats/levels?taxonomy=.
func (h *StatsHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	stats, err := h.progress.LevelStats(r.Context(), learnerID, r.URL.Query().Get("taxonomy"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load level statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"levels": stats})
}

// GetDecks handles GET /api/stats/decks.
func (h *StatsHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := learnerFromRequest(w, r, log)
	if !ok {
		return
	}

	stats, err := h.progress.DeckStats(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load deck statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"decks": stats})
}
