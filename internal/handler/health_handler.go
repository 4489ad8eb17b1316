package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"golink-redirect/internal/repository"
	"golink-redirect/pkg/logging"
	"golink-redirect/response"
)

const healthCheckTimeout = 2 * time.Second

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

type HealthHandler struct {
	db   *gorm.DB
	pool *redis.Pool
}

// NewHealthHandler pool 为 nil 时 redis 状态为 disabled
func NewHealthHandler(db *gorm.DB, pool *redis.Pool) *HealthHandler {
	return &HealthHandler{db: db, pool: pool}
}

// Health GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := HealthStatus{Status: "healthy", Database: "up", Redis: "disabled"}

	if err := h.pingDB(ctx); err != nil {
		logging.Logger.Warn("Health check: database down", zap.Error(err))
		status.Status = "unhealthy"
		status.Database = "down"
	}

	if h.pool != nil {
		status.Redis = "up"
		if err := repository.PingRedis(ctx, h.pool); err != nil {
			// Redis 只是缓存，故障时重定向仍可用
			logging.Logger.Warn("Health check: redis down", zap.Error(err))
			status.Redis = "down"
			if status.Status == "healthy" {
				status.Status = "degraded"
			}
		}
	}

	if status.Status == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, response.Fail(status, "unhealthy"))
		return
	}
	c.JSON(http.StatusOK, response.OK(status, "ok"))
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
