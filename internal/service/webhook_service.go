package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/paystack"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/worker"
)

type WebhookLedger interface {
	ApplyEscrowCredit(ctx context.Context, order *models.Order, reference string, metadata models.Metadata) error
	RecordFailedCharge(ctx context.Context, orderID uuid.UUID, reference string, amountCents int64, metadata models.Metadata) error
	UpdateTransferStatus(ctx context.Context, reference, status string, metadata models.Metadata) error
}

type WebhookOrderRepository interface {
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// WebhookService processes gateway callbacks. Processing is
// idempotent: the same delivery can arrive any number of times and the
// ledger moves at most once.
type WebhookService struct {
	orders   WebhookOrderRepository
	ledger   WebhookLedger
	secret   string
	enqueuer worker.Enqueuer
}

func NewWebhookService(orders WebhookOrderRepository, ledger WebhookLedger, secret string, enqueuer worker.Enqueuer) *WebhookService {
	return &WebhookService{orders: orders, ledger: ledger, secret: secret, enqueuer: enqueuer}
}

// Process verifies and dispatches one webhook delivery. A bad
// signature or malformed payload is the caller's error; failures on a
// well-formed delivery of an unknown reference are swallowed so the
// gateway does not retry forever.
func (s *WebhookService) Process(ctx context.Context, rawBody []byte, signature string) error {
	if !paystack.VerifySignature(rawBody, signature, s.secret) {
		logger.Log.Warn("webhook: invalid signature")
		return apperror.New(apperror.ErrCodeUnauthorized, "invalid signature")
	}

	data, err := paystack.ParseWebhook(rawBody)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "invalid webhook data")
	}
	if !paystack.IsValidEvent(data.Event) {
		return apperror.New(apperror.ErrCodeBadRequest, "invalid event type")
	}

	logger.Log.WithField("event", data.Event).
		WithField("reference", data.Data.Reference).
		Info("processing gateway webhook")

	switch data.Event {
	case paystack.EventChargeSuccess:
		return s.handleChargeSuccess(ctx, data)
	case paystack.EventChargeFailed:
		return s.handleChargeFailed(ctx, data)
	case paystack.EventTransferSuccess:
		return s.handleTransferOutcome(ctx, data, models.TransactionStatusCompleted)
	case paystack.EventTransferFailed:
		return s.handleTransferOutcome(ctx, data, models.TransactionStatusFailed)
	}
	return nil
}

func (s *WebhookService) handleChargeSuccess(ctx context.Context, data *paystack.WebhookData) error {
	order, err := s.orders.GetByReference(ctx, data.Data.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			logger.Log.WithField("reference", data.Data.Reference).Warn("webhook: no order for reference")
			return nil
		}
		return err
	}

	// The charged amount must equal the order amount exactly; partial
	// or excess payments stay out of escrow and need operator review.
	if data.Data.Amount != order.AmountCents {
		logger.Log.WithField("order_id", order.ID).
			WithField("expected", order.AmountCents).
			WithField("received", data.Data.Amount).
			Error("webhook: payment amount mismatch")
		return nil
	}

	err = s.ledger.ApplyEscrowCredit(ctx, order, data.Data.Reference, models.Metadata{
		"customer_email":  data.Data.Customer.Email,
		"payment_channel": data.Data.Channel,
		"paid_at":         data.Data.PaidAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			logger.Log.WithField("reference", data.Data.Reference).
				Info("webhook: duplicate delivery ignored")
			return nil
		}
		return err
	}

	logger.Log.WithField("order_id", order.ID).Info("payment verified, escrow created")

	s.notify(ctx, order.FreelancerID.String(), "payment_received",
		"Escrow funded", "A client has funded escrow for one of your orders.")
	return nil
}

func (s *WebhookService) handleChargeFailed(ctx context.Context, data *paystack.WebhookData) error {
	order, err := s.orders.GetByReference(ctx, data.Data.Reference)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			logger.Log.WithField("reference", data.Data.Reference).Warn("webhook: no order for reference")
			return nil
		}
		return err
	}

	err = s.ledger.RecordFailedCharge(ctx, order.ID, data.Data.Reference, data.Data.Amount, models.Metadata{
		"customer_email": data.Data.Customer.Email,
		"failure_reason": data.Data.GatewayResponse,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	// The order goes back to pending_payment so the client can retry.
	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPendingPayment); err != nil {
		return err
	}

	logger.Log.WithField("order_id", order.ID).Info("payment failed")
	return nil
}

func (s *WebhookService) handleTransferOutcome(ctx context.Context, data *paystack.WebhookData, status string) error {
	metadata := models.Metadata{}
	if status == models.TransactionStatusCompleted {
		metadata["transfer_completed_at"] = time.Now().UTC().Format(time.RFC3339)
		metadata["transfer_reference"] = data.Data.Reference
	} else {
		metadata["transfer_failed_at"] = time.Now().UTC().Format(time.RFC3339)
		metadata["failure_reason"] = data.Data.GatewayResponse
	}

	err := s.ledger.UpdateTransferStatus(ctx, data.Data.Reference, status, metadata)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			logger.Log.WithField("reference", data.Data.Reference).
				Warn("webhook: no transaction for transfer reference")
			return nil
		}
		return err
	}

	logger.Log.WithField("reference", data.Data.Reference).
		WithField("status", status).
		Info("transfer outcome recorded")
	return nil
}

// notify enqueues a best-effort notification; queue unavailability
// never fails webhook processing.
func (s *WebhookService) notify(ctx context.Context, userID, kind, subject, body string) {
	if s.enqueuer == nil {
		return
	}
	task, err := worker.NewNotificationTask(userID, kind, subject, body)
	if err != nil {
		logger.Log.WithError(err).Warn("webhook: cannot build notification task")
		return
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		logger.Log.WithError(err).Warn("webhook: cannot enqueue notification")
	}
}
