package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestCheckoutHandlerCreatesBill(t *testing.T) {
	svc, _, _, _ := newFixture(10)
	h := &Handler{Service: svc, Validate: validator.New()}

	body := `{"storeId":"` + storeID + `","items":[{"productId":"` + widgetID + `","quantity":2}],"customerName":"Jo"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Message string `json:"message"`
		Bill    struct {
			BillID     string `json:"billId"`
			GrandTotal string `json:"grandTotal"`
		} `json:"bill"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bill created successfully", resp.Message)
	require.NotEmpty(t, resp.Bill.BillID)
}

func TestCheckoutHandlerRejectsMalformedBody(t *testing.T) {
	svc, _, _, _ := newFixture(10)
	h := &Handler{Service: svc, Validate: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCheckoutHandlerRejectsEmptyItems(t *testing.T) {
	svc, _, _, _ := newFixture(10)
	h := &Handler{Service: svc, Validate: validator.New()}

	body := `{"storeId":"` + storeID + `","items":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandlerMapsInsufficientStock(t *testing.T) {
	svc, _, _, _ := newFixture(1)
	h := &Handler{Service: svc, Validate: validator.New()}

	body := `{"storeId":"` + storeID + `","items":[{"productId":"` + widgetID + `","quantity":5}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")
	require.Contains(t, rec.Body.String(), "Widget")
}
