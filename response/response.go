package response

import (
	"golink-redirect/internal/apperrors"
	"time"
)

// Response 是一个通用的 API 响应结构
type Response[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorBody 重定向路径上的错误响应：{"error": "...", "message": "..."}
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// OK 构造一个成功的响应
func OK[T any](data T, message string) *Response[T] {
	return &Response[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Fail 构造一个失败的响应（带数据）
func Fail[T any](data T, message string) *Response[T] {
	return &Response[T]{
		Success:   false,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// ErrorFromAppError 基于 AppError 构造错误响应，translate 为空时不做本地化；
// 没有 MessageID/DetailID 的字段始终使用原文
func ErrorFromAppError(err *apperrors.AppError, translate func(id, fallback string) string) *ErrorBody {
	if translate == nil {
		translate = func(_, fallback string) string { return fallback }
	}
	body := &ErrorBody{Error: translate(err.MessageID, err.Message)}
	if err.Detail != "" {
		body.Message = translate(err.DetailID, err.Detail)
	}
	return body
}
