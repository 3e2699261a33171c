package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/dto"
)

// UUIDValidator checks that the named URL parameter is a valid UUID.
// Usage: router.GET("/orders/:id", UUIDValidator("id"), handler.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
				Success: false, Error: "missing " + paramName + " parameter",
			})
			return
		}

		if _, err := uuid.Parse(idStr); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
				Success: false, Error: paramName + " must be a valid UUID",
			})
			return
		}

		c.Next()
	}
}
