package insights

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler serves the insight endpoints.
type Handler struct {
	Service *Service
}

// Events handles GET /marketing/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	events, fallback := h.Service.UpcomingEvents(r.Context())
	resp := map[string]any{"events": events}
	if fallback {
		resp["fallback"] = true
	}
	common.JSON(w, http.StatusOK, resp)
}

// Trends handles GET /reports/store/{storeId}/insights with an optional
// ?question= parameter.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("store id is required"))
		return
	}
	text, fallback := h.Service.TrendInsights(r.Context(), storeID, r.URL.Query().Get("question"))
	resp := map[string]any{"insights": text}
	if fallback {
		resp["fallback"] = true
	}
	common.JSON(w, http.StatusOK, resp)
}
