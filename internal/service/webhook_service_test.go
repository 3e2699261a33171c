package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
)

const testWebhookSecret = "test-webhook-secret"

type mockWebhookOrders struct {
	byReference map[string]*models.Order
	statuses    map[uuid.UUID]string
}

func newMockWebhookOrders() *mockWebhookOrders {
	return &mockWebhookOrders{
		byReference: make(map[string]*models.Order),
		statuses:    make(map[uuid.UUID]string),
	}
}

func (m *mockWebhookOrders) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if order, ok := m.byReference[reference]; ok {
		return order, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockWebhookOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.statuses[id] = status
	return nil
}

type mockLedger struct {
	credited     map[string]int
	failed       []string
	transferRefs map[string]string
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		credited:     make(map[string]int),
		transferRefs: make(map[string]string),
	}
}

func (m *mockLedger) ApplyEscrowCredit(ctx context.Context, order *models.Order, reference string, metadata models.Metadata) error {
	if m.credited[reference] > 0 {
		return repository.ErrDuplicateReference
	}
	m.credited[reference]++
	order.Status = models.OrderStatusInEscrow
	return nil
}

func (m *mockLedger) RecordFailedCharge(ctx context.Context, orderID uuid.UUID, reference string, amountCents int64, metadata models.Metadata) error {
	m.failed = append(m.failed, reference)
	return nil
}

func (m *mockLedger) UpdateTransferStatus(ctx context.Context, reference, status string, metadata models.Metadata) error {
	if _, ok := m.transferRefs[reference]; !ok {
		return repository.ErrTransactionNotFound
	}
	m.transferRefs[reference] = status
	return nil
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func chargeBody(event, reference string, amount int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"data":{"reference":%q,"amount":%d,"status":"success","channel":"card","customer":{"email":"client@example.com"}}}`,
		event, reference, amount))
}

func TestWebhookService_RejectsBadSignature(t *testing.T) {
	svc := NewWebhookService(newMockWebhookOrders(), newMockLedger(), testWebhookSecret, nil)

	body := chargeBody("charge.success", "GIG_REF", 100000)
	err := svc.Process(context.Background(), body, "deadbeef")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)
}

func TestWebhookService_RejectsUnknownEvent(t *testing.T) {
	svc := NewWebhookService(newMockWebhookOrders(), newMockLedger(), testWebhookSecret, nil)

	body := chargeBody("subscription.create", "GIG_REF", 100000)
	err := svc.Process(context.Background(), body, sign(body))
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeBadRequest, appErr.Code)
}

func TestWebhookService_ChargeSuccessCreditsEscrowOnce(t *testing.T) {
	orders := newMockWebhookOrders()
	ledger := newMockLedger()
	svc := NewWebhookService(orders, ledger, testWebhookSecret, nil)

	reference := "GIG_ORDER_1700000000000_ABC"
	order := &models.Order{
		ID:           uuid.New(),
		FreelancerID: uuid.New(),
		AmountCents:  150000,
		Status:       models.OrderStatusPendingVerification,
	}
	orders.byReference[reference] = order

	body := chargeBody("charge.success", reference, 150000)

	require.NoError(t, svc.Process(context.Background(), body, sign(body)))
	assert.Equal(t, 1, ledger.credited[reference])

	// A replayed delivery must not credit the ledger a second time and
	// must still be acknowledged.
	require.NoError(t, svc.Process(context.Background(), body, sign(body)))
	assert.Equal(t, 1, ledger.credited[reference])
}

func TestWebhookService_ChargeSuccessAmountMismatch(t *testing.T) {
	orders := newMockWebhookOrders()
	ledger := newMockLedger()
	svc := NewWebhookService(orders, ledger, testWebhookSecret, nil)

	reference := "GIG_ORDER_1700000000000_DEF"
	orders.byReference[reference] = &models.Order{
		ID:          uuid.New(),
		AmountCents: 150000,
		Status:      models.OrderStatusPendingVerification,
	}

	// Underpayment is acknowledged but never credited.
	body := chargeBody("charge.success", reference, 100000)
	require.NoError(t, svc.Process(context.Background(), body, sign(body)))
	assert.Zero(t, ledger.credited[reference])
}

func TestWebhookService_ChargeSuccessUnknownReference(t *testing.T) {
	svc := NewWebhookService(newMockWebhookOrders(), newMockLedger(), testWebhookSecret, nil)

	body := chargeBody("charge.success", "GIG_UNKNOWN", 100000)
	assert.NoError(t, svc.Process(context.Background(), body, sign(body)))
}

func TestWebhookService_ChargeFailedReopensOrder(t *testing.T) {
	orders := newMockWebhookOrders()
	ledger := newMockLedger()
	svc := NewWebhookService(orders, ledger, testWebhookSecret, nil)

	reference := "GIG_ORDER_1700000000000_GHI"
	order := &models.Order{
		ID:          uuid.New(),
		AmountCents: 150000,
		Status:      models.OrderStatusPendingVerification,
	}
	orders.byReference[reference] = order

	body := chargeBody("charge.failed", reference, 150000)
	require.NoError(t, svc.Process(context.Background(), body, sign(body)))

	assert.Equal(t, []string{reference}, ledger.failed)
	assert.Equal(t, models.OrderStatusPendingPayment, orders.statuses[order.ID])
}

func TestWebhookService_TransferOutcomes(t *testing.T) {
	orders := newMockWebhookOrders()
	ledger := newMockLedger()
	svc := NewWebhookService(orders, ledger, testWebhookSecret, nil)

	ledger.transferRefs["TRF_123"] = models.TransactionStatusPending

	success := chargeBody("transfer.success", "TRF_123", 150000)
	require.NoError(t, svc.Process(context.Background(), success, sign(success)))
	assert.Equal(t, models.TransactionStatusCompleted, ledger.transferRefs["TRF_123"])

	failed := chargeBody("transfer.failed", "TRF_123", 150000)
	require.NoError(t, svc.Process(context.Background(), failed, sign(failed)))
	assert.Equal(t, models.TransactionStatusFailed, ledger.transferRefs["TRF_123"])

	// Unknown transfer references are acknowledged without effect.
	unknown := chargeBody("transfer.success", "TRF_MISSING", 1)
	assert.NoError(t, svc.Process(context.Background(), unknown, sign(unknown)))
}
