package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the catalog read endpoints.
type Handler struct {
	Service *Service
}

// Products handles GET /products/store/{storeId}, optionally filtered with ?q=.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("store id is required"))
		return
	}
	var (
		products []Product
		err      error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		products, err = h.Service.SearchProducts(r.Context(), storeID, q)
	} else {
		products, err = h.Service.ListProducts(r.Context(), storeID)
	}
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"products": products})
}

// Stores handles GET /stores.
func (h *Handler) Stores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.Service.ListStores(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if stores == nil {
		stores = []StoreSummary{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"stores": stores})
}
