package dto

import (
	"net/http"
	"time"

	"golink-redirect/pkg/utils"
)

// ClickMeta 在请求 goroutine 中提取的点击元数据，后台任务只使用这份拷贝
type ClickMeta struct {
	IP        string
	UserAgent string
	Referer   *string
}

// ClickMetaFromRequest 提取 IP、User-Agent 与 Referer（缺失时为 nil）
func ClickMetaFromRequest(r *http.Request) ClickMeta {
	meta := ClickMeta{
		IP:        utils.ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		meta.Referer = &referer
	}
	return meta
}

// ClickAlert 开启 emailAlerts 的短链被点击时发布的消息
type ClickAlert struct {
	Slug      string    `json:"slug"`
	ClickID   string    `json:"clickId"`
	Ts        time.Time `json:"ts"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Referer   *string   `json:"referer"`
	Hostname  *string   `json:"hostname"`
	Country   *string   `json:"country"`
	City      *string   `json:"city"`
}
