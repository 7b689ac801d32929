package delivery

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-pos/internal/billing"
)

// Enqueuer pushes invoice email tasks onto the delivery queue.
type Enqueuer struct {
	Client   *asynq.Client
	Queue    string
	MaxRetry int
}

// EnqueueInvoice implements the checkout delivery contract.
func (e *Enqueuer) EnqueueInvoice(ctx context.Context, bill billing.Bill) error {
	return e.enqueue(ctx, InvoicePayload{BillID: bill.BillID})
}

// EnqueueResend queues a manual re-send, optionally overriding the recipient.
func (e *Enqueuer) EnqueueResend(ctx context.Context, billID, emailOverride string) error {
	return e.enqueue(ctx, InvoicePayload{BillID: billID, EmailOverride: emailOverride})
}

func (e *Enqueuer) enqueue(ctx context.Context, p InvoicePayload) error {
	if e == nil || e.Client == nil {
		return fmt.Errorf("delivery: enqueuer not configured")
	}
	task, err := NewInvoiceTask(p)
	if err != nil {
		return err
	}
	opts := []asynq.Option{}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if e.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(e.MaxRetry))
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("delivery: enqueue invoice: %w", err)
	}
	return nil
}
