package report

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler serves the report endpoints.
type Handler struct {
	Service *Service
}

// StoreReport handles GET /reports/store/{storeId}.
func (h *Handler) StoreReport(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("store id is required"))
		return
	}
	rep, err := h.Service.StoreReport(r.Context(), storeID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, rep)
}

// AllStoreReports handles GET /reports/stores.
func (h *Handler) AllStoreReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Service.AllStoreReports(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if reports == nil {
		reports = []StoreReport{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"reports": reports})
}
