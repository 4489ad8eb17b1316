package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golink-redirect/internal/repository"
	"golink-redirect/pkg/config"
	"golink-redirect/response"
)

func serveHealth(t *testing.T, h *HealthHandler) (int, HealthStatus) {
	t.Helper()

	r := gin.New()
	r.GET("/api/v1/health", h.Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var body response.Response[HealthStatus]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body.Data
}

func TestHealthWithoutRedis(t *testing.T) {
	code, status := serveHealth(t, NewHealthHandler(newTestDB(t), nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthStatus{Status: "healthy", Database: "up", Redis: "disabled"}, status)
}

func TestHealthWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	pool := repository.NewRedisPool(config.RedisSettings{Addr: mr.Addr()})
	defer pool.Close()

	code, status := serveHealth(t, NewHealthHandler(newTestDB(t), pool))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Redis)
}

func TestHealthRedisDownIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	pool := repository.NewRedisPool(config.RedisSettings{Addr: mr.Addr()})
	defer pool.Close()
	mr.Close()

	code, status := serveHealth(t, NewHealthHandler(newTestDB(t), pool))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "down", status.Redis)
}

func TestHealthDatabaseDown(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, status := serveHealth(t, NewHealthHandler(db, nil))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "down", status.Database)
}
