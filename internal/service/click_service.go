package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"golink-redirect/internal/dto"
	"golink-redirect/internal/geo"
	"golink-redirect/internal/metrics"
	"golink-redirect/internal/model"
	"golink-redirect/pkg/logging"
)

// ClickWriter 追加点击记录
type ClickWriter interface {
	AddClick(ctx context.Context, click *model.Click) (string, error)
}

// IPResolver 反向解析 + 地理位置，失败字段为 nil
type IPResolver interface {
	Resolve(ctx context.Context, ip string) geo.Intelligence
}

// AlertPublisher 点击告警发布
type AlertPublisher interface {
	PublishClickAlert(ctx context.Context, alert dto.ClickAlert) error
}

type ClickRecorder struct {
	writer   ClickWriter
	resolver IPResolver
	alerts   AlertPublisher
	now      func() time.Time
}

// NewClickRecorder alerts 可以为 nil
func NewClickRecorder(writer ClickWriter, resolver IPResolver, alerts AlertPublisher) *ClickRecorder {
	return &ClickRecorder{
		writer:   writer,
		resolver: resolver,
		alerts:   alerts,
		now:      time.Now,
	}
}

// Record 等待 IP 信息解析完成后写入一条完整的点击记录；写入失败则什么也不写。
// 由后台任务调用，返回的错误只记录不重试。
func (r *ClickRecorder) Record(ctx context.Context, slug string, meta dto.ClickMeta, emailAlerts bool) error {
	intel := r.resolver.Resolve(ctx, meta.IP)

	click := &model.Click{
		Slug:      slug,
		Ts:        r.now().UTC(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Referer:   meta.Referer,
		Hostname:  intel.Hostname,
		Country:   intel.Geo.Country,
		Region:    intel.Geo.Region,
		City:      intel.Geo.City,
		Timezone:  intel.Geo.Timezone,
		ISP:       intel.Geo.ISP,
	}

	id, err := r.writer.AddClick(ctx, click)
	if err != nil {
		return err
	}
	metrics.ClicksRecorded.Inc()

	if emailAlerts && r.alerts != nil {
		alert := dto.ClickAlert{
			Slug:      slug,
			ClickID:   id,
			Ts:        click.Ts,
			IP:        click.IP,
			UserAgent: click.UserAgent,
			Referer:   click.Referer,
			Hostname:  click.Hostname,
			Country:   click.Country,
			City:      click.City,
		}
		// 点击已落库，告警失败不影响记录结果
		if err := r.alerts.PublishClickAlert(ctx, alert); err != nil {
			logging.Logger.Warn("Failed to publish click alert",
				zap.String("slug", slug),
				zap.String("click_id", id),
				zap.Error(err))
		}
	}
	return nil
}
