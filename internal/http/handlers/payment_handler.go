package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Initiate POST /payments/initiate
//
// Returns the bank transfer details and the reference the client must
// use. The order moves to payment_pending_verification until the
// gateway webhook or a manual verification confirms the money.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "order_id is required")
		return
	}

	initiation, err := h.payments.Initiate(c.Request.Context(), req.OrderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.InitiatePaymentResponse{
		Success:       true,
		Reference:     initiation.Reference,
		AmountCents:   initiation.AmountCents,
		Currency:      initiation.Currency,
		AccountNumber: initiation.Account.AccountNumber,
		AccountName:   initiation.Account.AccountName,
		BankName:      initiation.Account.BankName,
		Order:         initiation.Order,
	})
}

// Status GET /payments/status/:orderId
func (h *PaymentHandler) Status(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "orderId")
	if err != nil {
		common.RespondBadRequest(c, "invalid order id")
		return
	}

	order, transactions, err := h.payments.Status(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaymentStatusResponse{
		Success:      true,
		OrderStatus:  order.Status,
		Reference:    order.PaymentReference,
		Transactions: transactions,
	})
}

// Wallet GET /payments/wallet
func (h *PaymentHandler) Wallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	wallet, err := h.payments.Wallet(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, wallet)
}
