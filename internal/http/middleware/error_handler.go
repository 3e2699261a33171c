package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/logger"
	"github.com/gigconnect/backend/internal/pkg/apperror"
	"github.com/gigconnect/backend/internal/repository"
)

// ErrorHandler centralizes error responses. Handlers push errors onto
// the gin context; this middleware maps them to a status code and the
// JSON error envelope, masking anything internal.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		message := "internal server error"
		var details interface{}

		var appErr *apperror.AppError
		switch {
		case errors.As(err, &appErr):
			statusCode = appErr.HTTPStatus
			message = appErr.Message
			// Validation failures keep a stable top-level error so
			// clients can branch on it; the field problem goes in details.
			if appErr.Code == apperror.ErrCodeValidation {
				message = "Validation failed"
				details = []string{appErr.Message}
			}
		case errors.Is(err, repository.ErrUserNotFound):
			statusCode = http.StatusNotFound
			message = "user not found"
		case errors.Is(err, repository.ErrOrderNotFound):
			statusCode = http.StatusNotFound
			message = "order not found"
		case errors.Is(err, repository.ErrGigNotFound):
			statusCode = http.StatusNotFound
			message = "gig not found"
		}

		entry := logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": statusCode,
		})
		if statusCode >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Warn("request rejected")
		}

		c.JSON(statusCode, dto.ErrorResponse{Success: false, Error: message, Details: details})
	}
}
