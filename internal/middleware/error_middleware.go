package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"golink-redirect/internal/apperrors"
	"golink-redirect/internal/i18n"
	"golink-redirect/pkg/logging"
	"golink-redirect/response"
)

// GlobalErrorMiddleware 全局错误中间件：把 c.Errors 中的 AppError 渲染为 {"error","message"}
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.SystemErrorDefault()
		for _, ginErr := range c.Errors {
			var e *apperrors.AppError
			if errors.As(ginErr.Err, &e) {
				appErr = e
				break
			}
		}
		if appErr.Code >= http.StatusInternalServerError {
			logging.Logger.Error("Request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", appErr.Code),
				zap.Error(appErr))
		}

		abortWithAppError(c, appErr)
	}
}

// RecoveryMiddleware panic 时返回统一的 500 响应
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logging.Logger.Error("Panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec))
		abortWithAppError(c, apperrors.SystemErrorDefault())
	})
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	ctx := c.Request.Context()
	translate := func(id, fallback string) string {
		return i18n.T(ctx, id, fallback)
	}
	c.AbortWithStatusJSON(appErr.Code, response.ErrorFromAppError(appErr, translate))
}
