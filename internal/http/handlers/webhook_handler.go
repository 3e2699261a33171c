package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/paystack"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/service"
)

// Webhook bodies should be small; anything over this is not a gateway
// delivery.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks *service.WebhookService
}

func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Paystack POST /webhooks/paystack
//
// The signature covers the raw body bytes, so the body is read before
// any JSON parsing happens. Every accepted delivery is answered with
// 200 even when it is a replay or an unknown reference; only a bad
// signature or a malformed payload is rejected.
func (h *WebhookHandler) Paystack(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: "cannot read body"})
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)

	if err := h.webhooks.Process(c.Request.Context(), rawBody, signature); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{Success: false, Error: appErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Success: false, Error: "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
