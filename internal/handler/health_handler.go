package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sashvara/storefront_api/internal/utils"
)

var startTime = time.Now()

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	mongo PingFunc
	redis PingFunc
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(mongo, redis PingFunc) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis}
}

// GetHealth responds with service, MongoDB and Redis status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	mongoStatus := dependencyStatus(ctx, h.mongo)
	redisStatus := dependencyStatus(ctx, h.redis)

	code := http.StatusOK
	status := "healthy"
	if mongoStatus != "connected" {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}

	c.JSON(code, utils.Response{
		Success: code == http.StatusOK,
		Code:    code,
		Message: "Service is " + status,
		Data: gin.H{
			"status": status,
			"uptime": int(time.Since(startTime).Seconds()),
			"mongo":  mongoStatus,
			"redis":  redisStatus,
		},
		Meta: utils.Meta{RequestID: c.GetString("request_id"), Timestamp: time.Now().Format(time.RFC3339)},
	})
}

func dependencyStatus(ctx context.Context, ping PingFunc) string {
	if ping == nil {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
