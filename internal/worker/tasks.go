// Package worker holds the background task definitions and handlers
// processed by the asynq consumer binary.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names, namespaced by queue.
const (
	TypePayoutRelease     = "payouts:release"
	TypeNotificationSend  = "notifications:send"
	TypeReconciliationRun = "reconciliation:run"
	TypeCleanupRun        = "cleanup:run"
)

// Queue names with their worker concurrency weights.
const (
	QueuePayouts        = "payouts"
	QueueNotifications  = "notifications"
	QueueReconciliation = "reconciliation"
	QueueCleanup        = "cleanup"
)

// Enqueuer is the producer side of the task queue; *asynq.Client
// satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PayoutPayload asks the payout worker to release an order's escrow.
type PayoutPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	InitiatedBy uuid.UUID `json:"initiated_by"`
}

// NotificationPayload is a queued user notification.
type NotificationPayload struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func NewPayoutTask(orderID, initiatedBy uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(PayoutPayload{OrderID: orderID, InitiatedBy: initiatedBy})
	if err != nil {
		return nil, fmt.Errorf("worker: marshal payout payload: %w", err)
	}
	return asynq.NewTask(TypePayoutRelease, payload,
		asynq.Queue(QueuePayouts), asynq.MaxRetry(5)), nil
}

func NewNotificationTask(userID, kind, subject, body string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationPayload{
		UserID: userID, Kind: kind, Subject: subject, Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("worker: marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationSend, payload,
		asynq.Queue(QueueNotifications), asynq.MaxRetry(3)), nil
}

func NewReconciliationTask() *asynq.Task {
	return asynq.NewTask(TypeReconciliationRun, nil,
		asynq.Queue(QueueReconciliation), asynq.MaxRetry(1))
}

func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupRun, nil,
		asynq.Queue(QueueCleanup), asynq.MaxRetry(1))
}
