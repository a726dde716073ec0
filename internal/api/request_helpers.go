package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/api/shared"
	"github.com/phrazzld/kioku-api/internal/domain"
)

// maxStateIDs bounds the ids accepted by one states lookup.
const maxStateIDs = 500

// learnerFromRequest extracts the authenticated learner placed in the context
// by the auth middleware. It writes a 401 and returns false when none is set.
func learnerFromRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	learnerID, ok := shared.LearnerID(r.Context())
	if !ok {
		log.Warn("learner ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found or invalid")
		return uuid.Nil, false
	}
	return learnerID, true
}

// scopeFromQuery reads the taxonomy, level and deckId query parameters.
// A nil scope with a nil error means all cards.
func scopeFromQuery(r *http.Request) (*domain.Scope, error) {
	q := r.URL.Query()
	return domain.ParseScope(q.Get("taxonomy"), q.Get("level"), q.Get("deckId"))
}

// idsFromQuery splits a comma separated ids parameter, dropping blanks and
// duplicates while keeping first-seen order.
func idsFromQuery(raw string) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > maxStateIDs {
		return nil, domain.NewValidationError("ids", "lists too many cards", domain.ErrValidation)
	}
	return ids, nil
}
