package inventory

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Handler serves the inventory read and adjustment endpoints.
type Handler struct {
	DB       repo.DB
	Store    Store
	Validate *validator.Validate
}

// List handles GET /inventory/store/{storeId}.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("store id is required"))
		return
	}
	var (
		recs []Record
		err  error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		recs, err = h.Store.Search(r.Context(), h.DB, storeID, q)
	} else {
		recs, err = h.Store.ListByStore(r.Context(), h.DB, storeID)
	}
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"inventory": recs})
}

// SearchByQuery handles GET /inventory/search?storeId=&q=.
func (h *Handler) SearchByQuery(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(r.URL.Query().Get("storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("storeId query parameter is required"))
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		common.WriteError(w, common.ValidationError("q query parameter is required"))
		return
	}
	recs, err := h.Store.Search(r.Context(), h.DB, storeID, q)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"inventory": recs})
}

type adjustRequest struct {
	StoreID    string `json:"storeId" validate:"required,uuid4"`
	ProductID  string `json:"productId" validate:"required,uuid4"`
	CategoryID string `json:"categoryId" validate:"required,uuid4"`
	Delta      int32  `json:"delta" validate:"required"`
}

// Adjust handles POST /inventory/adjust for restocks and corrections.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationError("invalid request body"))
		return
	}
	if err := h.Validate.StructCtx(r.Context(), req); err != nil {
		common.WriteError(w, common.ValidationError(err.Error()))
		return
	}
	key := Key{StoreID: req.StoreID, ProductID: req.ProductID, CategoryID: req.CategoryID}
	rec, err := h.Store.Adjust(r.Context(), h.DB, key, req.Delta)
	if err != nil {
		if err == ErrInsufficient {
			common.WriteError(w, common.ValidationError("adjustment would make stock negative"))
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"inventory": rec})
}
