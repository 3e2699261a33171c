package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigconnect/backend/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestGetWallet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		mock.ExpectQuery(`SELECT user_id, balance_cents, reserved_cents, updated_at`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_cents", "reserved_cents", "updated_at"}).
				AddRow(userID, int64(150000), int64(50000), time.Now()))

		wallet, err := repo.GetWallet(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, int64(150000), wallet.BalanceCents)
		assert.Equal(t, int64(50000), wallet.ReservedCents)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		userID := uuid.New()
		mock.ExpectQuery(`SELECT user_id, balance_cents, reserved_cents, updated_at`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_cents", "reserved_cents", "updated_at"}))

		wallet, err := repo.GetWallet(context.Background(), userID)
		assert.ErrorIs(t, err, ErrWalletNotFound)
		assert.Nil(t, wallet)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplyEscrowCredit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	order := &models.Order{
		ID:           uuid.New(),
		FreelancerID: uuid.New(),
		AmountCents:  250000,
		Status:       models.OrderStatusPendingVerification,
	}
	reference := "GIG_TEST_1700000000000_ABCDEFGHJKMNP"
	freelancerUserID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(order.ID, models.TransactionTypeEscrowCredit, order.AmountCents,
				models.TransactionStatusCompleted, reference, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE orders SET status`).
			WithArgs(order.ID, models.OrderStatusInEscrow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT user_id FROM freelancers`).
			WithArgs(order.FreelancerID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(freelancerUserID))
		mock.ExpectExec(`UPDATE wallets SET reserved_cents`).
			WithArgs(freelancerUserID, order.AmountCents).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ApplyEscrowCredit(context.Background(), order, reference, models.Metadata{"channel": "card"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replayed Reference", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(order.ID, models.TransactionTypeEscrowCredit, order.AmountCents,
				models.TransactionStatusCompleted, reference, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_transactions_reference_type"})
		mock.ExpectRollback()

		err := repo.ApplyEscrowCredit(context.Background(), order, reference, nil)
		assert.ErrorIs(t, err, ErrDuplicateReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back On Wallet Error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO transactions`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE orders SET status`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT user_id FROM freelancers`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(freelancerUserID))
		mock.ExpectExec(`UPDATE wallets SET reserved_cents`).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		err := repo.ApplyEscrowCredit(context.Background(), order, reference, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "hold escrow funds")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// A declined charge must not consume the reference slot the eventual
// successful charge needs: the failed insert dedups only against other
// failed rows, and a later credit on the same reference goes through.
func TestRecordFailedChargeThenSuccessfulCredit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	order := &models.Order{
		ID:           uuid.New(),
		FreelancerID: uuid.New(),
		AmountCents:  250000,
		Status:       models.OrderStatusPendingPayment,
	}
	reference := "GIG_TEST_1700000000000_ABCDEFGHJKMNP"
	freelancerUserID := uuid.New()

	mock.ExpectExec(`ON CONFLICT \(paystack_reference, type\) WHERE paystack_reference IS NOT NULL AND status = 'failed' DO NOTHING`).
		WithArgs(order.ID, models.TransactionTypeEscrowCredit, order.AmountCents,
			models.TransactionStatusFailed, reference, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordFailedCharge(context.Background(), order.ID, reference, order.AmountCents,
		models.Metadata{"failure_reason": "Declined"})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs(order.ID, models.TransactionTypeEscrowCredit, order.AmountCents,
			models.TransactionStatusCompleted, reference, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs(order.ID, models.OrderStatusInEscrow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT user_id FROM freelancers`).
		WithArgs(order.FreelancerID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(freelancerUserID))
	mock.ExpectExec(`UPDATE wallets SET reserved_cents`).
		WithArgs(freelancerUserID, order.AmountCents).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ApplyEscrowCredit(context.Background(), order, reference, models.Metadata{"channel": "bank"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletePayout(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	order := &models.Order{
		ID:           uuid.New(),
		FreelancerID: uuid.New(),
		AmountCents:  250000,
		Status:       models.OrderStatusDelivered,
	}
	transferRef := "TRF_abc123"
	freelancerUserID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT user_id FROM freelancers`).
			WithArgs(order.FreelancerID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(freelancerUserID))
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(freelancerUserID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_cents", "reserved_cents", "updated_at"}).
				AddRow(freelancerUserID, int64(0), order.AmountCents, time.Now()))
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(order.ID, models.TransactionTypeAdminPayout, order.AmountCents,
				models.TransactionStatusPending, transferRef, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE wallets`).
			WithArgs(freelancerUserID, order.AmountCents).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE orders SET status`).
			WithArgs(order.ID, models.OrderStatusCompleted).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CompletePayout(context.Background(), order, transferRef, nil)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Reserved Below Payout", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT user_id FROM freelancers`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(freelancerUserID))
		mock.ExpectQuery(`FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance_cents", "reserved_cents", "updated_at"}).
				AddRow(freelancerUserID, int64(0), order.AmountCents-1, time.Now()))
		mock.ExpectRollback()

		err := repo.CompletePayout(context.Background(), order, transferRef, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "below payout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTransferStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE transactions`).
			WithArgs("TRF_abc123", models.TransactionStatusCompleted, sqlmock.AnyArg(), models.TransactionTypeAdminPayout).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateTransferStatus(context.Background(), "TRF_abc123",
			models.TransactionStatusCompleted, models.Metadata{"transfer_code": "TRF_abc123"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		mock.ExpectExec(`UPDATE transactions`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateTransferStatus(context.Background(), "TRF_missing",
			models.TransactionStatusFailed, nil)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
