package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/handlers/common"
	"github.com/gigconnect/backend/internal/service"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := common.ParseLimitOffset(c, 50, 200)

	users, err := h.admin.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	out := make([]dto.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, dto.NewPublicUser(&users[i]))
	}
	common.RespondData(c, http.StatusOK, out)
}

// VerifyUser POST /admin/users/verify
func (h *AdminHandler) VerifyUser(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.VerifyKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "user_id is required")
		return
	}

	user, err := h.admin.VerifyUser(c.Request.Context(), adminID, req.UserID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NewPublicUser(user))
}

// SetUserStatus PATCH /admin/users/:id/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "invalid user id")
		return
	}

	var req dto.SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "status is required")
		return
	}

	user, err := h.admin.SetUserStatus(c.Request.Context(), adminID, userID, req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NewPublicUser(user))
}

// ReleaseEscrow POST /admin/escrow/release
//
// Queues the payout; the response reflects the order as it was when
// the release was accepted, not the completed payout.
func (h *AdminHandler) ReleaseEscrow(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.ReleaseEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "order_id is required")
		return
	}

	order, err := h.admin.ReleaseEscrow(c.Request.Context(), adminID, req.OrderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusAccepted, order)
}

// VerifyPayment POST /admin/payments/verify
//
// Manual fallback for bank transfers the gateway webhook never
// confirmed. Credits escrow through the same ledger path as the
// webhook, so a later webhook replay cannot double-credit.
func (h *AdminHandler) VerifyPayment(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "reference is required")
		return
	}

	order, err := h.admin.VerifyPayment(c.Request.Context(), adminID, req.Reference)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, order)
}

// ListTransactions GET /admin/transactions
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	limit, offset := common.ParseLimitOffset(c, 50, 200)

	transactions, err := h.admin.ListTransactions(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, transactions)
}

// ListAuditEvents GET /admin/audit
func (h *AdminHandler) ListAuditEvents(c *gin.Context) {
	limit, offset := common.ParseLimitOffset(c, 50, 200)

	events, err := h.admin.ListAuditEvents(c.Request.Context(),
		c.Query("actor_id"), c.Query("action"), int64(limit), int64(offset))
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, events)
}
