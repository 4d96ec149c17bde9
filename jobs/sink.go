package jobs

import (
	"context"
	"fmt"

	"github.com/velora-pos/velora/internal/sales"
)

// EventSink adapts the queue client to the sales event port.
type EventSink struct {
	client *Client
}

// NewEventSink constructs EventSink.
func NewEventSink(client *Client) *EventSink {
	return &EventSink{client: client}
}

// Emit enqueues the event for the notification worker.
func (s *EventSink) Emit(ctx context.Context, ev sales.Event) error {
	task, opts, err := NewSaleEventTask(ev)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueSaleEvent(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue sale event: %w", err)
	}
	return nil
}
