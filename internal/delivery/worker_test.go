package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/mail"
)

type stubBills struct {
	bills map[string]billing.Bill
}

func (s stubBills) GetByBillID(_ context.Context, billID string) (billing.Bill, error) {
	bill, ok := s.bills[billID]
	if !ok {
		return billing.Bill{}, common.NotFoundError("bill not found")
	}
	return bill, nil
}

func sampleBill(email string) billing.Bill {
	return billing.Bill{
		BillID:        "b-1",
		StoreID:       "s-1",
		CustomerEmail: email,
		Items: []billing.Line{{
			ProductName: "Widget", Quantity: 1,
			Price: decimal.New(100, 0), Total: decimal.New(100, 0),
		}},
		GrandTotal: decimal.New(118, 0),
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func invoiceTask(t *testing.T, p InvoicePayload) *asynq.Task {
	t.Helper()
	task, err := NewInvoiceTask(p)
	require.NoError(t, err)
	return task
}

func TestWorkerSendsInvoice(t *testing.T) {
	sender := &mail.MemorySender{}
	w := &Worker{
		Bills:  stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("jo@example.com")}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}

	err := w.HandleInvoiceEmail(context.Background(), invoiceTask(t, InvoicePayload{BillID: "b-1"}))
	require.NoError(t, err)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"jo@example.com"}, sent[0].To)
	require.Len(t, sent[0].Attachments, 1)
	require.Equal(t, "invoice-b-1.pdf", sent[0].Attachments[0].Filename)
	require.Equal(t, "%PDF", string(sent[0].Attachments[0].Content[:4]))
}

func TestWorkerEmailOverrideWins(t *testing.T) {
	sender := &mail.MemorySender{}
	w := &Worker{
		Bills:  stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("jo@example.com")}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}

	err := w.HandleInvoiceEmail(context.Background(),
		invoiceTask(t, InvoicePayload{BillID: "b-1", EmailOverride: "other@example.com"}))
	require.NoError(t, err)
	require.Equal(t, []string{"other@example.com"}, sender.Sent()[0].To)
}

func TestWorkerUnknownBillSkipsRetry(t *testing.T) {
	w := &Worker{Bills: stubBills{}, Sender: &mail.MemorySender{}, Logger: zerolog.Nop()}

	err := w.HandleInvoiceEmail(context.Background(), invoiceTask(t, InvoicePayload{BillID: "nope"}))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWorkerNoRecipientSkipsRetry(t *testing.T) {
	w := &Worker{
		Bills:  stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("")}},
		Sender: &mail.MemorySender{},
		Logger: zerolog.Nop(),
	}

	err := w.HandleInvoiceEmail(context.Background(), invoiceTask(t, InvoicePayload{BillID: "b-1"}))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestWorkerSendFailureRetries(t *testing.T) {
	sender := &mail.MemorySender{Err: errors.New("smtp down")}
	w := &Worker{
		Bills:  stubBills{bills: map[string]billing.Bill{"b-1": sampleBill("jo@example.com")}},
		Sender: sender,
		Logger: zerolog.Nop(),
	}

	err := w.HandleInvoiceEmail(context.Background(), invoiceTask(t, InvoicePayload{BillID: "b-1"}))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry, "transient failures must stay retryable")
}
