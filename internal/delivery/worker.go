package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/billing"
	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/invoice"
	"github.com/noah-isme/backend-pos/internal/mail"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// BillSource loads bills for delivery.
type BillSource interface {
	GetByBillID(ctx context.Context, billID string) (billing.Bill, error)
}

// Worker processes invoice email tasks: load the bill, render the PDF, send.
type Worker struct {
	Bills  BillSource
	Sender mail.Sender
	Logger zerolog.Logger
}

// HandleInvoiceEmail is the asynq handler for TaskInvoiceEmail. A missing
// bill or a bill without a recipient is terminal; transient send failures
// are retried by the queue.
func (w *Worker) HandleInvoiceEmail(ctx context.Context, task *asynq.Task) error {
	var p InvoicePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode invoice payload: %v: %w", err, asynq.SkipRetry)
	}

	bill, err := w.Bills.GetByBillID(ctx, p.BillID)
	if err != nil {
		if isNotFound(err) {
			w.Logger.Error().Str("bill_id", p.BillID).Msg("invoice task for unknown bill")
			observeDelivery("missing_bill")
			return fmt.Errorf("bill %s not found: %w", p.BillID, asynq.SkipRetry)
		}
		return err
	}

	to := bill.CustomerEmail
	if p.EmailOverride != "" {
		to = p.EmailOverride
	}
	if to == "" {
		observeDelivery("no_recipient")
		return fmt.Errorf("bill %s has no recipient: %w", p.BillID, asynq.SkipRetry)
	}

	pdf, err := invoice.Render(bill)
	if err != nil {
		observeDelivery("render_error")
		return fmt.Errorf("render invoice %s: %v: %w", p.BillID, err, asynq.SkipRetry)
	}

	msg := mail.Message{
		To:      []string{to},
		Subject: "Your invoice " + bill.BillID,
		Text: fmt.Sprintf("Thank you for your purchase. Your invoice %s for %s is attached.",
			bill.BillID, "Rs."+bill.GrandTotal.StringFixed(2)),
		Attachments: []mail.Attachment{{
			Filename:    "invoice-" + bill.BillID + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	}
	if err := w.Sender.Send(ctx, msg); err != nil {
		observeDelivery("send_error")
		w.Logger.Warn().Err(err).Str("bill_id", bill.BillID).Msg("invoice email send failed")
		return err
	}

	observeDelivery("sent")
	w.Logger.Info().Str("bill_id", bill.BillID).Str("to", to).Msg("invoice email sent")
	return nil
}

func observeDelivery(result string) {
	if obs.InvoiceDeliveriesTotal != nil {
		obs.InvoiceDeliveriesTotal.WithLabelValues(result).Inc()
	}
}

func isNotFound(err error) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.Code == common.CodeNotFound
}
