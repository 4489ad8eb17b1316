package apperrors

import (
	"net/http"
)

// MsgNotFound i18n 消息 ID，与 i18n/*.toml 保持一致
const MsgNotFound = "error.not_found"

// AppError 自定义错误类型
type AppError struct {
	Code    int
	Message string
	Detail  string

	// MessageID/DetailID 用于本地化，为空时响应体固定使用 Message/Detail 原文
	MessageID string
	DetailID  string
	Cause     error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause 附加底层错误，返回副本
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// NotFoundError 短链不存在、已禁用或格式非法，对外统一为 404；只有这一类错误文本按语言本地化
func NotFoundError() *AppError {
	return &AppError{
		Code:      http.StatusNotFound,
		Message:   "Not found",
		MessageID: MsgNotFound,
	}
}

// ServiceUnavailableError 存储查询超时，客户端可重试
func ServiceUnavailableError() *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Message: "Service temporarily unavailable",
		Detail:  "Please try again in a moment",
	}
}

// InvalidConfigurationError 短链记录存在但目标地址不可用（数据问题，不是客户端错误）
func InvalidConfigurationError() *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: "Invalid link configuration",
	}
}

// SystemErrorDefault 默认系统内部错误
func SystemErrorDefault() *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Detail:  "Please try again later",
	}
}
