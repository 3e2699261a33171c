package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/paystack"
	"github.com/gigconnect/backend/internal/repository"
	"github.com/gigconnect/backend/internal/service"
)

const handlerWebhookSecret = "handler-webhook-secret"

type stubWebhookOrders struct {
	order    *models.Order
	statuses map[uuid.UUID]string
}

func (s *stubWebhookOrders) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if s.order != nil && s.order.PaymentReference != nil && *s.order.PaymentReference == reference {
		return s.order, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (s *stubWebhookOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.statuses[id] = status
	return nil
}

type stubWebhookLedger struct {
	credits map[string]int
}

func (s *stubWebhookLedger) ApplyEscrowCredit(ctx context.Context, order *models.Order, reference string, metadata models.Metadata) error {
	if s.credits[reference] > 0 {
		return repository.ErrDuplicateReference
	}
	s.credits[reference]++
	return nil
}

func (s *stubWebhookLedger) RecordFailedCharge(ctx context.Context, orderID uuid.UUID, reference string, amountCents int64, metadata models.Metadata) error {
	return nil
}

func (s *stubWebhookLedger) UpdateTransferStatus(ctx context.Context, reference, status string, metadata models.Metadata) error {
	return nil
}

func signBody(body []byte) string {
	mac := hmac.New(sha512.New, []byte(handlerWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRouter(orders *stubWebhookOrders, ledger *stubWebhookLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewWebhookService(orders, ledger, handlerWebhookSecret, nil)
	handler := NewWebhookHandler(svc)

	r := gin.New()
	r.POST("/webhooks/paystack", handler.Paystack)
	return r
}

func deliver(t *testing.T, r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func escrowedOrder(reference string, amount int64) *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		ClientID:         uuid.New(),
		FreelancerID:     uuid.New(),
		AmountCents:      amount,
		Currency:         "NGN",
		Status:           models.OrderStatusPendingVerification,
		PaymentReference: &reference,
	}
}

func TestWebhookEndpoint_RejectsMissingSignature(t *testing.T) {
	r := webhookRouter(&stubWebhookOrders{statuses: map[uuid.UUID]string{}}, &stubWebhookLedger{credits: map[string]int{}})

	body := []byte(`{"event":"charge.success","data":{"reference":"GIG_X","amount":1000}}`)
	rec := deliver(t, r, body, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookEndpoint_RejectsTamperedBody(t *testing.T) {
	r := webhookRouter(&stubWebhookOrders{statuses: map[uuid.UUID]string{}}, &stubWebhookLedger{credits: map[string]int{}})

	body := []byte(`{"event":"charge.success","data":{"reference":"GIG_X","amount":1000}}`)
	signature := signBody(body)
	tampered := []byte(`{"event":"charge.success","data":{"reference":"GIG_X","amount":9000}}`)

	rec := deliver(t, r, tampered, signature)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookEndpoint_RejectsUnknownEvent(t *testing.T) {
	r := webhookRouter(&stubWebhookOrders{statuses: map[uuid.UUID]string{}}, &stubWebhookLedger{credits: map[string]int{}})

	body := []byte(`{"event":"subscription.create","data":{"reference":"GIG_X","amount":1000}}`)
	rec := deliver(t, r, body, signBody(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpoint_ChargeSuccessIsAcknowledgedOnce(t *testing.T) {
	reference := "GIG_TEST_REF"
	orders := &stubWebhookOrders{order: escrowedOrder(reference, 250000), statuses: map[uuid.UUID]string{}}
	ledger := &stubWebhookLedger{credits: map[string]int{}}
	r := webhookRouter(orders, ledger)

	body := []byte(fmt.Sprintf(
		`{"event":"charge.success","data":{"reference":%q,"amount":250000,"status":"success","channel":"bank_transfer","customer":{"email":"client@example.com"}}}`,
		reference))
	signature := signBody(body)

	first := deliver(t, r, body, signature)
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"status":"success"}`, first.Body.String())

	// The gateway retries deliveries; the replay is acknowledged but
	// the ledger must not move again.
	second := deliver(t, r, body, signature)
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, ledger.credits[reference])
}

func TestWebhookEndpoint_UnknownReferenceIsAcknowledged(t *testing.T) {
	r := webhookRouter(&stubWebhookOrders{statuses: map[uuid.UUID]string{}}, &stubWebhookLedger{credits: map[string]int{}})

	body := []byte(`{"event":"charge.success","data":{"reference":"GIG_NOBODY","amount":1000,"customer":{"email":"x@example.com"}}}`)
	rec := deliver(t, r, body, signBody(body))

	assert.Equal(t, http.StatusOK, rec.Code)
}
