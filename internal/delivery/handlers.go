package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// ResendQueue is the narrow enqueue contract the handler needs.
type ResendQueue interface {
	EnqueueResend(ctx context.Context, billID, emailOverride string) error
}

// Handler serves the manual invoice re-send endpoint.
type Handler struct {
	Bills BillSource
	Queue ResendQueue
}

type resendRequest struct {
	Email string `json:"email"`
}

// SendEmail handles POST /bills/{billId}/send-email. The optional body may
// carry an email that overrides the recipient stored on the bill.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	billID := strings.TrimSpace(chi.URLParam(r, "billId"))
	if billID == "" {
		common.WriteError(w, common.ValidationError("bill id is required"))
		return
	}

	var req resendRequest
	if body, err := io.ReadAll(io.LimitReader(r.Body, 4096)); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			common.WriteError(w, common.ValidationError("invalid request body"))
			return
		}
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			common.WriteError(w, common.ValidationError("invalid email address"))
			return
		}
	}

	bill, err := h.Bills.GetByBillID(r.Context(), billID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Email == "" && bill.CustomerEmail == "" {
		common.WriteError(w, common.ValidationError("bill has no customer email; provide one in the request body"))
		return
	}

	if err := h.Queue.EnqueueResend(r.Context(), bill.BillID, req.Email); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONMessage(w, http.StatusAccepted, "invoice email queued")
}
