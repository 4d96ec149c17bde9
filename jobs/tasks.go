// Package jobs runs the asynchronous notification pipeline over Redis.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/velora-pos/velora/internal/sales"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSaleEvent carries a committed sale event to the worker.
	TaskTypeSaleEvent = "notify:sale_event"
)

// SaleEventPayload is the wire form of a sale event.
type SaleEventPayload struct {
	Kind         sales.EventKind `json:"kind"`
	SaleID       int64           `json:"saleId"`
	CustomerID   int64           `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	Total        float64         `json:"total"`
	OldStatus    sales.Status    `json:"oldStatus,omitempty"`
	NewStatus    sales.Status    `json:"newStatus,omitempty"`
}

// Event converts the payload back to the domain event.
func (p SaleEventPayload) Event() sales.Event {
	return sales.Event{
		Kind:         p.Kind,
		SaleID:       p.SaleID,
		CustomerID:   p.CustomerID,
		CustomerName: p.CustomerName,
		Total:        p.Total,
		OldStatus:    p.OldStatus,
		NewStatus:    p.NewStatus,
	}
}

// NewSaleEventTask constructs an Asynq task for a sale event. The task id
// is random so distinct events on the same sale never collide.
func NewSaleEventTask(ev sales.Event) (*asynq.Task, []asynq.Option, error) {
	payload := SaleEventPayload{
		Kind:         ev.Kind,
		SaleID:       ev.SaleID,
		CustomerID:   ev.CustomerID,
		CustomerName: ev.CustomerName,
		Total:        ev.Total,
		OldStatus:    ev.OldStatus,
		NewStatus:    ev.NewStatus,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal sale event: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID(fmt.Sprintf("%s:%d:%s", ev.Kind, ev.SaleID, uuid.NewString())),
		asynq.MaxRetry(5),
	}
	return asynq.NewTask(TaskTypeSaleEvent, data), opts, nil
}
