package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/velora-pos/velora/internal/notify"
)

// NotificationJob turns sale event tasks into notification rows.
type NotificationJob struct {
	Logger        *slog.Logger
	Notifications *notify.Service
}

// NewNotificationJob initialises the sale event handler.
func NewNotificationJob(logger *slog.Logger, notifications *notify.Service) *NotificationJob {
	return &NotificationJob{Logger: logger, Notifications: notifications}
}

// Handle processes one sale event task.
func (j *NotificationJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Notifications == nil {
		return errors.New("notification job: handler not configured")
	}
	var payload SaleEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.Logger.Error("undecodable sale event task", slog.String("error", err.Error()))
		return asynq.SkipRetry
	}
	if err := j.Notifications.HandleSaleEvent(ctx, payload.Event()); err != nil {
		j.Logger.Error("handle sale event",
			slog.String("kind", string(payload.Kind)),
			slog.Int64("sale_id", payload.SaleID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
