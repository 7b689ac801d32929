package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
)

type recordingQueue struct {
	billID   string
	override string
}

func (q *recordingQueue) EnqueueResend(_ context.Context, billID, emailOverride string) error {
	q.billID = billID
	q.override = emailOverride
	return nil
}

func newResendRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/bills/{billId}/send-email", h.SendEmail)
	return r
}

func TestSendEmailQueuesStoredRecipient(t *testing.T) {
	queue := &recordingQueue{}
	h := &Handler{
		Bills: stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("jo@example.com")}},
		Queue: queue,
	}
	r := newResendRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bills/b-1/send-email", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "b-1", queue.billID)
	require.Empty(t, queue.override)
}

func TestSendEmailWithOverride(t *testing.T) {
	queue := &recordingQueue{}
	h := &Handler{
		Bills: stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("")}},
		Queue: queue,
	}
	r := newResendRouter(h)

	body := strings.NewReader(`{"email":"new@example.com"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bills/b-1/send-email", body))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "new@example.com", queue.override)
}

func TestSendEmailUnknownBill(t *testing.T) {
	h := &Handler{Bills: stubBills{}, Queue: &recordingQueue{}}
	r := newResendRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bills/nope/send-email", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendEmailNoRecipientAnywhere(t *testing.T) {
	h := &Handler{
		Bills: stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("")}},
		Queue: &recordingQueue{},
	}
	r := newResendRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bills/b-1/send-email", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEmailRejectsBadAddress(t *testing.T) {
	h := &Handler{
		Bills: stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("jo@example.com")}},
		Queue: &recordingQueue{},
	}
	r := newResendRouter(h)

	body := strings.NewReader(`{"email":"not-an-address"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bills/b-1/send-email", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
