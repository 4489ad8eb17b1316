package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"golink-redirect/internal/i18n"
	"golink-redirect/internal/metrics"
	"golink-redirect/internal/middleware"
)

type RouterOptions struct {
	Logger         *zap.Logger
	Catalog        *i18n.Catalog
	AllowedOrigins []string
}

// NewRouter 注册中间件与路由；除 /api 下的运维接口外，其余请求都交给重定向兜底路由
func NewRouter(redirect *RedirectHandler, health *HealthHandler, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.ZapGinLogger(logger))
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.GlobalErrorMiddleware())
	if opts.Catalog != nil {
		r.Use(middleware.I18nMiddleware(opts.Catalog))
	}

	api := r.Group("/api")
	api.Use(middleware.CorsMiddleware(opts.AllowedOrigins))
	{
		if health != nil {
			api.GET("/v1/health", health.Health)
		}
		api.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.NoRoute(redirect.Redirect)

	return r
}
