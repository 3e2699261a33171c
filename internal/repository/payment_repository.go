package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigconnect/backend/internal/models"
)

const transactionColumns = `id, order_id, type, amount_cents, status, paystack_reference, metadata, created_at`

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `
		SELECT user_id, balance_cents, reserved_cents, updated_at
		FROM wallets WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: get wallet: %w", err)
	}
	return &wallet, nil
}

// ApplyEscrowCredit records a confirmed charge in one transaction:
// the ledger entry, the order moving to in_escrow, and the hold on the
// freelancer's wallet. The unique (paystack_reference, type) index makes
// a replayed delivery fail on the insert before any balance moves, so
// callers see ErrDuplicateReference instead of a double credit.
func (r *PaymentRepository) ApplyEscrowCredit(ctx context.Context, order *models.Order, reference string, metadata models.Metadata) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (order_id, type, amount_cents, status, paystack_reference, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, models.TransactionTypeEscrowCredit, order.AmountCents,
		models.TransactionStatusCompleted, reference, metadata); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("payment repository: insert escrow credit: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, order.ID, models.OrderStatusInEscrow); err != nil {
		return fmt.Errorf("payment repository: mark order in escrow: %w", err)
	}

	// The wallet row is keyed by the user, not the freelancer profile.
	var freelancerUserID uuid.UUID
	if err := tx.GetContext(ctx, &freelancerUserID, `
		SELECT user_id FROM freelancers WHERE id = $1
	`, order.FreelancerID); err != nil {
		return fmt.Errorf("payment repository: resolve freelancer user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets SET reserved_cents = reserved_cents + $2, updated_at = NOW()
		WHERE user_id = $1
	`, freelancerUserID, order.AmountCents); err != nil {
		return fmt.Errorf("payment repository: hold escrow funds: %w", err)
	}

	return tx.Commit()
}

// RecordFailedCharge writes a failed ledger entry for a charge that the
// gateway rejected. Replays of the same failure are dropped silently.
// Failed rows live outside the success dedup index, so the client can
// still complete the charge on this reference later and have it
// credited normally.
func (r *PaymentRepository) RecordFailedCharge(ctx context.Context, orderID uuid.UUID, reference string, amountCents int64, metadata models.Metadata) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (order_id, type, amount_cents, status, paystack_reference, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (paystack_reference, type) WHERE paystack_reference IS NOT NULL AND status = 'failed' DO NOTHING
	`, orderID, models.TransactionTypeEscrowCredit, amountCents,
		models.TransactionStatusFailed, reference, metadata)
	if err != nil {
		return fmt.Errorf("payment repository: record failed charge: %w", err)
	}
	return nil
}

// CompletePayout releases escrowed funds to the freelancer once an
// operator approves the order: the payout ledger entry, the order
// completing, and the wallet hold converting into withdrawable balance,
// all in one transaction. The wallet row is locked so two concurrent
// releases cannot move the same hold twice.
func (r *PaymentRepository) CompletePayout(ctx context.Context, order *models.Order, transferReference string, metadata models.Metadata) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var freelancerUserID uuid.UUID
	if err := tx.GetContext(ctx, &freelancerUserID, `
		SELECT user_id FROM freelancers WHERE id = $1
	`, order.FreelancerID); err != nil {
		return fmt.Errorf("payment repository: resolve freelancer user: %w", err)
	}

	var wallet models.Wallet
	if err := tx.GetContext(ctx, &wallet, `
		SELECT user_id, balance_cents, reserved_cents, updated_at
		FROM wallets WHERE user_id = $1 FOR UPDATE
	`, freelancerUserID); err != nil {
		return fmt.Errorf("payment repository: lock wallet: %w", err)
	}
	if wallet.ReservedCents < order.AmountCents {
		return fmt.Errorf("payment repository: reserved %d below payout %d for order %s",
			wallet.ReservedCents, order.AmountCents, order.ID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (order_id, type, amount_cents, status, paystack_reference, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, models.TransactionTypeAdminPayout, order.AmountCents,
		models.TransactionStatusPending, transferReference, metadata); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("payment repository: insert payout: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET reserved_cents = reserved_cents - $2,
		    balance_cents = balance_cents + $2,
		    updated_at = NOW()
		WHERE user_id = $1
	`, freelancerUserID, order.AmountCents); err != nil {
		return fmt.Errorf("payment repository: release escrow funds: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $1
	`, order.ID, models.OrderStatusCompleted); err != nil {
		return fmt.Errorf("payment repository: complete order: %w", err)
	}

	return tx.Commit()
}

// UpdateTransferStatus patches a payout ledger entry when the gateway
// reports the outcome of a transfer.
func (r *PaymentRepository) UpdateTransferStatus(ctx context.Context, reference, status string, metadata models.Metadata) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $2, metadata = metadata || $3::jsonb
		WHERE paystack_reference = $1 AND type = $4
	`, reference, status, metadata, models.TransactionTypeAdminPayout)
	if err != nil {
		return fmt.Errorf("payment repository: update transfer status: %w", err)
	}
	return requireRow(res, ErrTransactionNotFound)
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE order_id = $1
		ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("payment repository: list by order: %w", err)
	}
	return txs, nil
}

// ListTransactions pages the full ledger, newest first. Admin reporting
// uses this.
func (r *PaymentRepository) ListTransactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	txs := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT `+transactionColumns+` FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payment repository: list transactions: %w", err)
	}
	return txs, nil
}
