package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/gigconnect/backend/internal/db"
)

// HealthHandler exposes the service health endpoint.
type HealthHandler struct {
	pg    *sqlx.DB
	mongo *db.Mongo
}

func NewHealthHandler(pg *sqlx.DB, mongo *db.Mongo) *HealthHandler {
	return &HealthHandler{pg: pg, mongo: mongo}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.pg.PingContext(ctx); err != nil {
		checks["postgres"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["postgres"] = "healthy"
	}

	if err := h.mongo.Ping(ctx); err != nil {
		checks["mongodb"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["mongodb"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
