package billing

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

// Reader is the read-side contract the handlers need. The pg-backed
// implementation binds Store to the pool; tests provide stubs.
type Reader interface {
	ListByStore(ctx context.Context, storeID string, page, perPage int) ([]Bill, int, error)
	GetByBillID(ctx context.Context, billID string) (Bill, error)
}

// Handler serves the bill read endpoints.
type Handler struct {
	Bills Reader
}

const defaultPerPage = 50

// ListByStore handles GET /bills/store/{storeId}?page=&limit=. The response
// always carries an array, never null, and bills arrive newest first.
func (h *Handler) ListByStore(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "storeId"))
	if storeID == "" {
		common.WriteError(w, common.ValidationError("store id is required"))
		return
	}
	page, perPage := common.ParsePagination(r, defaultPerPage)
	bills, total, err := h.Bills.ListByStore(r.Context(), storeID, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"bills":      bills,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Get handles GET /bills/{billId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	billID := strings.TrimSpace(chi.URLParam(r, "billId"))
	if billID == "" {
		common.WriteError(w, common.ValidationError("bill id is required"))
		return
	}
	bill, err := h.Bills.GetByBillID(r.Context(), billID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"bill": bill})
}

// PoolReader adapts Store to the Reader contract over a fixed DB handle.
type PoolReader struct {
	DB    repo.DB
	Store Store
}

// ListByStore implements Reader.
func (p PoolReader) ListByStore(ctx context.Context, storeID string, page, perPage int) ([]Bill, int, error) {
	total, err := p.Store.CountByStore(ctx, p.DB, storeID)
	if err != nil {
		return nil, 0, err
	}
	bills, err := p.Store.ListByStore(ctx, p.DB, storeID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return bills, total, nil
}

// GetByBillID implements Reader.
func (p PoolReader) GetByBillID(ctx context.Context, billID string) (Bill, error) {
	return p.Store.GetByBillID(ctx, p.DB, billID)
}
