package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/dto"
	"github.com/gigconnect/backend/internal/http/middleware"
)

var (
	// ErrNoIdentity is returned when no authenticated user is present in context.
	ErrNoIdentity = errors.New("no authenticated user in context")

	// ErrInvalidUUID is returned when UUID parsing fails.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// CurrentUserID extracts the authenticated user id from the Gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrNoIdentity
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}

	return userID, nil
}

// CurrentUserRole extracts the caller's role from the Gin context.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrNoIdentity
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrNoIdentity
	}

	return role, nil
}

// ParseUUIDParam parses a UUID from a URL parameter.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("missing %s parameter", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// ParseLimitOffset reads limit/offset query parameters with defaults.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// RespondError sends a standardized error response.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Success: false, Error: message})
}

// RespondValidation sends a 400 with field-level details.
func RespondValidation(c *gin.Context, details map[string]string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Success: false,
		Error:   "Validation failed",
		Details: details,
	})
}

// RespondData sends a standardized success response.
func RespondData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{Success: true, Data: data})
}

// RespondUnauthorized sends a 401 response.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest sends a 400 response.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "bad request"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// Fail records an error for the centralized error handler middleware.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}
