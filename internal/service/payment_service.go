package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/paystack"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
)

type PaymentOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	MarkPaymentInitiated(ctx context.Context, id uuid.UUID, reference string) error
}

type PaymentLedger interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ApplyEscrowCredit(ctx context.Context, order *models.Order, reference string, metadata models.Metadata) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
}

// PaymentInitiation is what a client needs to complete a bank transfer.
type PaymentInitiation struct {
	Reference   string
	AmountCents int64
	Currency    string
	Account     paystack.AccountDetails
	Order       *models.Order
}

// PaymentService drives the client-facing half of the escrow flow:
// initiation, manual verification and status reads. The webhook
// service owns the gateway-driven half.
type PaymentService struct {
	orders  PaymentOrderRepository
	ledger  PaymentLedger
	account paystack.AccountDetails
}

func NewPaymentService(orders PaymentOrderRepository, ledger PaymentLedger, account paystack.AccountDetails) *PaymentService {
	return &PaymentService{orders: orders, ledger: ledger, account: account}
}

// Initiate generates a payment reference for an unpaid order and
// returns the transfer instructions. Re-initiating an order that is
// already past pending_payment is rejected.
func (s *PaymentService) Initiate(ctx context.Context, orderID uuid.UUID) (*PaymentInitiation, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	reference := paystack.GenerateReference(order.ID.String())
	if err := s.orders.MarkPaymentInitiated(ctx, order.ID, reference); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.New(apperror.ErrCodeConflict, "order is not awaiting payment")
		}
		return nil, err
	}

	order.PaymentReference = &reference
	order.Status = models.OrderStatusPendingVerification

	logger.Log.WithField("order_id", order.ID).
		WithField("reference", reference).
		Info("payment initiated")

	return &PaymentInitiation{
		Reference:   reference,
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
		Account:     s.account,
		Order:       order,
	}, nil
}

// VerifyManual confirms a bank transfer from an uploaded proof, before
// the gateway callback lands. It routes through the same ledger write
// as the webhook, so a later callback for the same reference is a
// no-op instead of a second credit.
func (s *PaymentService) VerifyManual(ctx context.Context, reference string, verifiedBy uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	err = s.ledger.ApplyEscrowCredit(ctx, order, reference, models.Metadata{
		"verified_via": "manual",
		"verified_by":  verifiedBy.String(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			logger.Log.WithField("reference", reference).Info("payment already verified")
		} else {
			return nil, err
		}
	}

	order.Status = models.OrderStatusInEscrow
	return order, nil
}

// Status reports the order's payment state together with its ledger
// entries.
func (s *PaymentService) Status(ctx context.Context, orderID uuid.UUID) (*models.Order, []models.Transaction, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, nil, apperror.ErrOrderNotFound
		}
		return nil, nil, err
	}

	txs, err := s.ledger.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, txs, nil
}

// Wallet returns the user's balance.
func (s *PaymentService) Wallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.ledger.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, apperror.ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}
