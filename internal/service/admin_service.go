package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/worker"
)

type AdminUserRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	VerifyKYC(ctx context.Context, userID, adminID uuid.UUID) (*models.User, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) (*models.User, error)
}

type AdminOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type TransactionLister interface {
	ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error)
}

type AuditTrail interface {
	RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error
	ListAuditEvents(ctx context.Context, actorID, action string, limit, offset int64) ([]models.AuditEvent, error)
}

// ManualVerifier is the payment service's operator-facing verification.
type ManualVerifier interface {
	VerifyManual(ctx context.Context, reference string, verifiedBy uuid.UUID) (*models.Order, error)
}

// AdminService covers the operator surface: user verification, escrow
// release and the audit trail. Escrow releases are queued rather than
// executed inline so a slow gateway call never blocks the operator.
type AdminService struct {
	users    AdminUserRepository
	orders   AdminOrderRepository
	ledger   TransactionLister
	audit    AuditTrail
	verifier ManualVerifier
	enqueuer worker.Enqueuer
}

func NewAdminService(users AdminUserRepository, orders AdminOrderRepository, ledger TransactionLister, audit AuditTrail, verifier ManualVerifier, enqueuer worker.Enqueuer) *AdminService {
	return &AdminService{users: users, orders: orders, ledger: ledger, audit: audit, verifier: verifier, enqueuer: enqueuer}
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// VerifyUser approves a pending KYC record and activates the account.
func (s *AdminService) VerifyUser(ctx context.Context, adminID, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.VerifyKYC(ctx, userID, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	s.recordAudit(ctx, adminID, "kyc_verified", "user", userID.String(), nil)

	logger.Log.WithField("user_id", userID).
		WithField("admin_id", adminID).
		Info("user kyc verified")
	return user, nil
}

// SetUserStatus suspends or reinstates an account. Admin and moderator
// accounts cannot be suspended through this call.
func (s *AdminService) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, status string) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusSuspended:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "status must be active or suspended")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if status == models.UserStatusSuspended &&
		(user.Role == models.RoleAdmin || user.Role == models.RoleModerator) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "cannot suspend a staff account")
	}

	updated, err := s.users.UpdateStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, adminID, "user_status_changed", "user", userID.String(), map[string]interface{}{
		"status": status,
	})

	logger.Log.WithField("user_id", userID).
		WithField("status", status).
		WithField("admin_id", adminID).
		Info("user status changed")
	return updated, nil
}

// ReleaseEscrow queues the payout for an escrowed order. The worker
// moves the money; a replayed release for the same order fails there
// on the payout's unique reference.
func (s *AdminService) ReleaseEscrow(ctx context.Context, adminID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusInEscrow, models.OrderStatusInProgress,
		models.OrderStatusDelivered, models.OrderStatusRevisionRequested:
	default:
		return nil, apperror.New(apperror.ErrCodeConflict, "order has no escrow to release")
	}

	task, err := worker.NewPayoutTask(order.ID, adminID)
	if err != nil {
		return nil, err
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, adminID, "escrow_release_queued", "order", orderID.String(), map[string]interface{}{
		"amount_cents": order.AmountCents,
	})

	logger.Log.WithField("order_id", orderID).
		WithField("admin_id", adminID).
		Info("escrow release queued")
	return order, nil
}

// VerifyPayment is the manual fallback for transfers the webhook never
// confirmed. The credit goes through the same ledger write as the
// webhook, so the two paths cannot double-credit each other.
func (s *AdminService) VerifyPayment(ctx context.Context, adminID uuid.UUID, reference string) (*models.Order, error) {
	order, err := s.verifier.VerifyManual(ctx, reference, adminID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, adminID, "payment_verified_manually", "order", order.ID.String(), map[string]interface{}{
		"reference":    reference,
		"amount_cents": order.AmountCents,
	})
	return order, nil
}

func (s *AdminService) ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	return s.ledger.ListTransactions(ctx, limit, offset)
}

func (s *AdminService) ListAuditEvents(ctx context.Context, actorID, action string, limit, offset int64) ([]models.AuditEvent, error) {
	return s.audit.ListAuditEvents(ctx, actorID, action, limit, offset)
}

// recordAudit is best-effort; a broken audit store must not block the
// operator action that already happened.
func (s *AdminService) recordAudit(ctx context.Context, actorID uuid.UUID, action, targetType, targetID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	event := &models.AuditEvent{
		ActorID:    actorID.String(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.audit.RecordAuditEvent(ctx, event); err != nil {
		logger.Log.WithError(err).Error("admin service: cannot record audit event")
	}
}
