package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/repository"
)

// Orphan uploads younger than this are left alone; the owner may still
// be attaching them.
const orphanFileGrace = 7 * 24 * time.Hour

type PayoutOrders interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type PayoutLedger interface {
	CompletePayout(ctx context.Context, order *models.Order, transferReference string, metadata models.Metadata) error
	ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error)
}

type SessionJanitor interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AuditSink interface {
	RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error
	ListOrphanFiles(ctx context.Context, olderThan time.Time, limit int64) ([]models.FileMetadata, error)
	DeleteFileMetadata(ctx context.Context, id primitive.ObjectID) error
}

type FileRemover interface {
	Delete(ctx context.Context, relativePath string) error
}

// Handlers bundles the task processors with their dependencies.
type Handlers struct {
	orders   PayoutOrders
	ledger   PayoutLedger
	sessions SessionJanitor
	audit    AuditSink
	files    FileRemover
	enqueuer Enqueuer
}

func NewHandlers(orders PayoutOrders, ledger PayoutLedger, sessions SessionJanitor, audit AuditSink, files FileRemover, enqueuer Enqueuer) *Handlers {
	return &Handlers{
		orders:   orders,
		ledger:   ledger,
		sessions: sessions,
		audit:    audit,
		files:    files,
		enqueuer: enqueuer,
	}
}

// Register wires every task type into the mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePayoutRelease, h.HandlePayout)
	mux.HandleFunc(TypeNotificationSend, h.HandleNotification)
	mux.HandleFunc(TypeReconciliationRun, h.HandleReconciliation)
	mux.HandleFunc(TypeCleanupRun, h.HandleCleanup)
}

// HandlePayout releases an order's escrow to the freelancer. The
// transfer reference is derived from the order id, so a redelivered or
// double-enqueued payout hits the ledger's unique reference and becomes
// a no-op.
func (h *Handlers) HandlePayout(ctx context.Context, task *asynq.Task) error {
	var payload PayoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("payout: bad payload: %v: %w", err, asynq.SkipRetry)
	}

	order, err := h.orders.GetByID(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			logger.Log.WithField("order_id", payload.OrderID).Warn("payout: order vanished")
			return nil
		}
		return err
	}
	if order.Status == models.OrderStatusCompleted {
		logger.Log.WithField("order_id", order.ID).Info("payout: order already completed")
		return nil
	}

	transferReference := "PAYOUT_" + order.ID.String()
	err = h.ledger.CompletePayout(ctx, order, transferReference, models.Metadata{
		"initiated_by": payload.InitiatedBy.String(),
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			logger.Log.WithField("order_id", order.ID).Info("payout: already processed")
			return nil
		}
		h.notify(ctx, order.FreelancerID.String(), "payout_failed",
			"Payout failed", "A payout for one of your orders failed and is being looked into.")
		return err
	}

	logger.Log.WithField("order_id", order.ID).
		WithField("amount_cents", order.AmountCents).
		Info("payout completed")

	h.notify(ctx, order.FreelancerID.String(), "payout_success",
		"Payout released", "Escrow funds for one of your orders were released to your wallet.")
	return nil
}

// HandleNotification delivers a queued notification. Delivery is a
// structured log plus an activity record until an email provider is
// wired in.
func (h *Handlers) HandleNotification(ctx context.Context, task *asynq.Task) error {
	var payload NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("notification: bad payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Log.WithField("user_id", payload.UserID).
		WithField("kind", payload.Kind).
		WithField("subject", payload.Subject).
		Info("notification sent")

	return h.audit.RecordAuditEvent(ctx, &models.AuditEvent{
		ActorID:    "system",
		Action:     "notification_sent",
		TargetType: "user",
		TargetID:   payload.UserID,
		Details: map[string]interface{}{
			"kind":    payload.Kind,
			"subject": payload.Subject,
		},
	})
}

// HandleReconciliation walks the recent ledger and flags entries whose
// order state disagrees with the money that moved.
func (h *Handlers) HandleReconciliation(ctx context.Context, task *asynq.Task) error {
	logger.Log.Info("reconciliation started")

	const pageSize = 100
	var checked, flagged int

	for offset := 0; ; offset += pageSize {
		txs, err := h.ledger.ListTransactions(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("reconciliation: list transactions: %w", err)
		}
		if len(txs) == 0 {
			break
		}

		for _, tx := range txs {
			if tx.Type != models.TransactionTypeEscrowCredit || tx.Status != models.TransactionStatusCompleted {
				continue
			}
			checked++

			order, err := h.orders.GetByID(ctx, tx.OrderID)
			if err != nil {
				if errors.Is(err, repository.ErrOrderNotFound) {
					flagged++
					logger.Log.WithField("transaction_id", tx.ID).
						WithField("order_id", tx.OrderID).
						Error("reconciliation: ledger entry without order")
					continue
				}
				return err
			}

			// A completed escrow credit must leave the order at or past
			// in_escrow.
			if order.Status == models.OrderStatusPendingPayment ||
				order.Status == models.OrderStatusPendingVerification {
				flagged++
				logger.Log.WithField("order_id", order.ID).
					WithField("order_status", order.Status).
					Error("reconciliation: escrow credit not reflected in order state")
			}
		}

		if len(txs) < pageSize {
			break
		}
	}

	logger.Log.WithField("checked", checked).
		WithField("flagged", flagged).
		Info("reconciliation completed")

	if flagged > 0 {
		return h.audit.RecordAuditEvent(ctx, &models.AuditEvent{
			ActorID:    "system",
			Action:     "reconciliation_discrepancies",
			TargetType: "ledger",
			TargetID:   "escrow_credits",
			Details:    map[string]interface{}{"checked": checked, "flagged": flagged},
		})
	}
	return nil
}

// HandleCleanup drops expired sessions and unreferenced uploads.
func (h *Handlers) HandleCleanup(ctx context.Context, task *asynq.Task) error {
	logger.Log.Info("cleanup started")

	deleted, err := h.sessions.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("cleanup: sessions: %w", err)
	}

	orphans, err := h.audit.ListOrphanFiles(ctx, time.Now().Add(-orphanFileGrace), 500)
	if err != nil {
		return fmt.Errorf("cleanup: list orphan files: %w", err)
	}

	var removed int
	for _, file := range orphans {
		if err := h.files.Delete(ctx, file.StorageURL); err != nil {
			logger.Log.WithError(err).WithField("path", file.StorageURL).Warn("cleanup: cannot delete file")
			continue
		}
		if err := h.audit.DeleteFileMetadata(ctx, file.ID); err != nil {
			logger.Log.WithError(err).Warn("cleanup: cannot delete file metadata")
			continue
		}
		removed++
	}

	logger.Log.WithField("expired_sessions", deleted).
		WithField("orphan_files", removed).
		Info("cleanup completed")
	return nil
}

func (h *Handlers) notify(ctx context.Context, userID, kind, subject, body string) {
	if h.enqueuer == nil {
		return
	}
	task, err := NewNotificationTask(userID, kind, subject, body)
	if err != nil {
		logger.Log.WithError(err).Warn("worker: cannot build notification task")
		return
	}
	if _, err := h.enqueuer.EnqueueContext(ctx, task); err != nil {
		logger.Log.WithError(err).Warn("worker: cannot enqueue notification")
	}
}
