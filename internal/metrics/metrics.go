package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 重定向结果，status 为 HTTP 状态码
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golink_redirects_total",
		Help: "Redirect requests by response status",
	}, []string{"status"})

	// 重定向响应耗时（仅包含 slug 查询，不包含后台任务）
	RedirectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "golink_redirect_duration_seconds",
		Help:    "Time spent producing the redirect response",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	DetachedTasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "golink_detached_tasks_in_flight",
		Help: "Background bookkeeping tasks currently running",
	})

	// task: click_count, click_log, visit_stats
	DetachedTaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golink_detached_task_failures_total",
		Help: "Background bookkeeping tasks that failed or panicked",
	}, []string{"task"})

	ClicksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golink_clicks_recorded_total",
		Help: "Click records written",
	})

	// source: dns, geo; result: ok, miss, private, error
	GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "golink_geo_lookups_total",
		Help: "IP enrichment lookups by source and result",
	}, []string{"source", "result"})
)

// Handler Prometheus 抓取接口
func Handler() http.Handler {
	return promhttp.Handler()
}
