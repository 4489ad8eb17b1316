package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"golink-redirect/internal/apperrors"
	"golink-redirect/internal/dto"
	"golink-redirect/internal/metrics"
	"golink-redirect/internal/service"
)

// ClickCounter 原子自增点击数并更新最后点击时间
type ClickCounter interface {
	IncrementClick(ctx context.Context, slug string, at time.Time) error
}

// VisitRecorder PV/UV 统计，可选
type VisitRecorder interface {
	RecordVisit(ctx context.Context, slug, ip string) error
}

type RedirectHandler struct {
	resolver   *service.RedirectService
	counter    ClickCounter
	recorder   *service.ClickRecorder
	visits     VisitRecorder
	dispatcher *service.Dispatcher
	now        func() time.Time
}

// NewRedirectHandler visits 为 nil 时不记录 PV/UV
func NewRedirectHandler(
	resolver *service.RedirectService,
	counter ClickCounter,
	recorder *service.ClickRecorder,
	visits VisitRecorder,
	dispatcher *service.Dispatcher,
) *RedirectHandler {
	return &RedirectHandler{
		resolver:   resolver,
		counter:    counter,
		recorder:   recorder,
		visits:     visits,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Redirect 兜底路由：解析 slug 后立即返回 302，
// 点击计数、点击日志和 PV/UV 统计在响应发出后以后台任务执行，不等待其完成。
func (h *RedirectHandler) Redirect(c *gin.Context) {
	start := time.Now()
	defer func() {
		metrics.RedirectDuration.Observe(time.Since(start).Seconds())
	}()

	if c.Request.Method != http.MethodGet {
		h.fail(c, apperrors.NotFoundError())
		return
	}

	target, err := h.resolver.Resolve(c.Request.Context(), c.Request.URL.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 后台任务不能再访问 c.Request，先拷贝需要的数据
	meta := dto.ClickMetaFromRequest(c.Request)
	clickedAt := h.now().UTC()

	// 直接写 Location，避免 http.Redirect 对目标地址做任何改写
	c.Header("Location", target.Target)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Status(http.StatusFound)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	metrics.RedirectsTotal.WithLabelValues(strconv.Itoa(http.StatusFound)).Inc()

	h.dispatch(target, meta, clickedAt)
}

func (h *RedirectHandler) dispatch(target *service.Redirect, meta dto.ClickMeta, clickedAt time.Time) {
	slug := target.Slug

	h.dispatcher.Go("click_count", func(ctx context.Context) error {
		return h.counter.IncrementClick(ctx, slug, clickedAt)
	})
	h.dispatcher.Go("click_log", func(ctx context.Context) error {
		return h.recorder.Record(ctx, slug, meta, target.EmailAlerts)
	})
	if h.visits != nil {
		h.dispatcher.Go("visit_stats", func(ctx context.Context) error {
			return h.visits.RecordVisit(ctx, slug, meta.IP)
		})
	}
}

func (h *RedirectHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.Code
	}
	metrics.RedirectsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	_ = c.Error(err)
}
