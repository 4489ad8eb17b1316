package constant

import (
	"fmt"
	"time"
)

// 常量定义
const (
	BasePrefix = "golink:"
	Separator  = ":"
)

// Redis 键模板
const (
	// golink:link:slug
	LinkCache = BasePrefix + "link" + Separator + "%s"
	// golink:pv:yyyyMMdd
	DailyPV = BasePrefix + "pv" + Separator + "%s"
	// golink:uv:yyyyMMdd:slug
	DailyUV = BasePrefix + "uv" + Separator + "%s" + Separator + "%s"
	// golink:total_uv:slug
	TotalUV = BasePrefix + "total_uv" + Separator + "%s"
)

// DailyKeyTTL 每日统计键保留 3 天（秒）
const DailyKeyTTL = 3 * 24 * 3600

// GetLinkCacheKey 生成短链缓存 key
func GetLinkCacheKey(slug string) string {
	return fmt.Sprintf(LinkCache, slug)
}

// GetDateKey 生成日期键（格式：yyyyMMdd）
func GetDateKey(t time.Time) string {
	return t.Format("20060102")
}

// GetDailyPVKey 生成每日 PV 键（格式：golink:pv:yyyyMMdd）
func GetDailyPVKey(date string) string {
	return fmt.Sprintf(DailyPV, date)
}

// GetDailyUVKey 生成每日 UV 键（格式：golink:uv:yyyyMMdd:slug）
func GetDailyUVKey(slug, date string) string {
	return fmt.Sprintf(DailyUV, date, slug)
}

// GetTotalUVKey 生成总 UV 键（格式：golink:total_uv:slug）
func GetTotalUVKey(slug string) string {
	return fmt.Sprintf(TotalUV, slug)
}
