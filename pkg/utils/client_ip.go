package utils

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP 无法识别客户端地址时的占位值
const UnknownIP = "unknown"

// ClientIP 按优先级提取客户端 IP：
// X-Forwarded-For 第一个值 → X-Real-IP → 连接远端地址 → "unknown"
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			if host != "" {
				return host
			}
		} else {
			return r.RemoteAddr
		}
	}

	return UnknownIP
}
