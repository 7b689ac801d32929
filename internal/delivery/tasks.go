// Package delivery queues and processes invoice emails. Delivery is
// best-effort and fully decoupled from checkout: a committed bill stays
// committed whatever happens here.
package delivery

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskInvoiceEmail is the asynq task type for sending one invoice email.
const TaskInvoiceEmail = "invoice:email"

// InvoicePayload identifies the bill to deliver. The worker reloads the bill
// so the payload stays small and replays pick up the stored record.
type InvoicePayload struct {
	BillID string `json:"billId"`
	// EmailOverride replaces the bill's customer email when set, used by
	// the manual re-send endpoint.
	EmailOverride string `json:"emailOverride,omitempty"`
}

// NewInvoiceTask builds the asynq task for a payload.
func NewInvoiceTask(p InvoicePayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("delivery: encode payload: %w", err)
	}
	return asynq.NewTask(TaskInvoiceEmail, data), nil
}
