package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/take-a-number/pkg/database"
	"github.com/prohmpiriya/take-a-number/pkg/redis"
	"github.com/prohmpiriya/take-a-number/pkg/response"
)

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	db          *database.PostgresDB
	redisClient *redis.Client
}

// NewHealthHandler creates a new HealthHandler; nil dependencies are skipped
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(gin.H{"status": "ok"}))
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.redisClient != nil {
		if err := h.redisClient.HealthCheck(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.ErrorWithData(response.ErrCodeServiceUnavailable, "Service is not ready", checks))
		return
	}

	checks["status"] = "ready"
	c.JSON(http.StatusOK, response.Success(checks))
}
