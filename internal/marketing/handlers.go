package marketing

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler serves POST /marketing/campaign.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// SendCampaign validates the request and runs the blast.
func (h *Handler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	var in CampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.ValidationError("invalid request body"))
		return
	}
	if err := h.Validate.StructCtx(r.Context(), in); err != nil {
		common.WriteError(w, common.ValidationError("storeId, eventName, discountPercent required"))
		return
	}
	result, err := h.Service.SendCampaign(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	message := "Campaign processed"
	if result.TotalRecipients == 0 {
		message = "No prior customers with email found"
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"message":         message,
		"sent":            result.Sent,
		"totalRecipients": result.TotalRecipients,
	})
}
