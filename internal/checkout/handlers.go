package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler serves POST /checkout.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// Checkout decodes, validates, and runs one checkout. A committed sale
// answers 201 with the persisted bill.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.ValidationError("invalid request body"))
		return
	}
	if err := h.Validate.StructCtx(r.Context(), in); err != nil {
		common.WriteError(w, common.ValidationError(err.Error()))
		return
	}
	bill, err := h.Service.Checkout(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"message": "bill created successfully",
		"bill":    bill,
	})
}
