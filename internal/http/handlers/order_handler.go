package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, order)
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid order id")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), userID, role, orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, order)
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.ParseLimitOffset(c, 20, 100)

	orders, err := h.orders.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, orders)
}

// UpdateStatus PATCH /orders/:id/status
//
// Moves the order along its workflow. Money never moves here; the
// payment and payout flows own the escrow transitions.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid order id")
		return
	}

	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "status is required")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), userID, role, orderID, req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, order)
}
