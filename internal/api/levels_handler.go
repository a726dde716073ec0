package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/kioku-api/internal/api/shared"
	"github.com/phrazzld/kioku-api/internal/curriculum"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
)

// LevelOrderer reports the effective term order of a curated level and
// whether it comes from an override or the curated list.
type LevelOrderer interface {
	Order(ctx context.Context, taxonomy, level string) ([]string, string, error)
}

// LevelsHandler lists the curated levels.
type LevelsHandler struct {
	orders     LevelOrderer
	curriculum *curriculum.Curriculum
	logger     *slog.Logger
}

// NewLevelsHandler creates a new LevelsHandler.
func NewLevelsHandler(orders LevelOrderer, c *curriculum.Curriculum, logger *slog.Logger) *LevelsHandler {
	if orders == nil || c == nil {
		panic("levels handler dependencies cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil for LevelsHandler")
	}
	return &LevelsHandler{
		orders:     orders,
		curriculum: c,
		logger:     logger.With(slog.String("component", "levels_handler")),
	}
}

// ListLevels handles GET /api/levels?taxonomy=.
func (h *LevelsHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	taxonomy := r.URL.Query().Get("taxonomy")

	levels := []LevelResponse{}
	for _, ref := range h.curriculum.Levels() {
		if taxonomy != "" && ref.Taxonomy != taxonomy {
			continue
		}
		terms, source, err := h.orders.Order(r.Context(), ref.Taxonomy, ref.Level)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to load levels")
			return
		}
		if terms == nil {
			terms = []string{}
		}
		levels = append(levels, LevelResponse{
			Taxonomy: ref.Taxonomy,
			Level:    ref.Level,
			Name:     ref.Name,
			Source:   source,
			Terms:    terms,
		})
	}

	log.Debug("levels listed", slog.Int("count", len(levels)))
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{"levels": levels})
}
