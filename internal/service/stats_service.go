package service

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"golink-redirect/constant"
	"golink-redirect/internal/model"
	"golink-redirect/pkg/logging"
	"golink-redirect/pkg/utils"
)

// VisitStats 在 Redis 中记录每日 PV、每日 UV 和总 UV（HyperLogLog）
type VisitStats struct {
	pool *redis.Pool
	now  func() time.Time
}

func NewVisitStats(pool *redis.Pool) *VisitStats {
	return &VisitStats{pool: pool, now: time.Now}
}

// RecordVisit 以 pipeline 方式写入一次访问
func (v *VisitStats) RecordVisit(ctx context.Context, slug, ip string) error {
	conn, err := v.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	date := constant.GetDateKey(v.now())
	dailyPVKey := constant.GetDailyPVKey(date)

	if err := conn.Send("HINCRBY", dailyPVKey, slug, 1); err != nil {
		return err
	}
	if err := conn.Send("EXPIRE", dailyPVKey, constant.DailyKeyTTL); err != nil {
		return err
	}
	// 无法识别的 IP 不计入 UV
	if ip != "" && ip != utils.UnknownIP {
		dailyUVKey := constant.GetDailyUVKey(slug, date)
		if err := conn.Send("PFADD", dailyUVKey, ip); err != nil {
			return err
		}
		if err := conn.Send("EXPIRE", dailyUVKey, constant.DailyKeyTTL); err != nil {
			return err
		}
		if err := conn.Send("PFADD", constant.GetTotalUVKey(slug), ip); err != nil {
			return err
		}
	}

	// 空命令：flush 并读取全部回复
	_, err = redis.DoContext(conn, ctx, "")
	return err
}

// DailyPV 读取某日 PV
func (v *VisitStats) DailyPV(ctx context.Context, conn redis.Conn, slug, date string) (int64, error) {
	pv, err := redis.Int64(redis.DoContext(conn, ctx, "HGET", constant.GetDailyPVKey(date), slug))
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	return pv, err
}

// DailyUV 读取某日 UV
func (v *VisitStats) DailyUV(ctx context.Context, conn redis.Conn, slug, date string) (int64, error) {
	return redis.Int64(redis.DoContext(conn, ctx, "PFCOUNT", constant.GetDailyUVKey(slug, date)))
}

// TotalUV 读取总 UV
func (v *VisitStats) TotalUV(ctx context.Context, conn redis.Conn, slug string) (int64, error) {
	return redis.Int64(redis.DoContext(conn, ctx, "PFCOUNT", constant.GetTotalUVKey(slug)))
}

// StatsRepository StatsSyncer 的存储依赖
type StatsRepository interface {
	ListActiveSlugs(ctx context.Context) ([]string, error)
	UpsertDailyStat(ctx context.Context, stat *model.DailyStat) error
	UpdateUniqueVisitors(ctx context.Context, slug string, uv int64) error
}

// StatsSyncer 定时把 Redis 中的当日 PV/UV 与总 UV 同步到数据库
type StatsSyncer struct {
	stats *VisitStats
	repo  StatsRepository
}

func NewStatsSyncer(stats *VisitStats, repo StatsRepository) *StatsSyncer {
	return &StatsSyncer{stats: stats, repo: repo}
}

// Sync 单个 slug 失败只记录日志，继续处理其他 slug
func (s *StatsSyncer) Sync(ctx context.Context) error {
	logging.Logger.Info("Stats sync start")

	slugs, err := s.repo.ListActiveSlugs(ctx)
	if err != nil {
		logging.Logger.Error("Failed to list links for stats sync", zap.Error(err))
		return err
	}

	conn, err := s.stats.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	now := s.stats.now()
	date := constant.GetDateKey(now)
	day := now.Format("2006-01-02")

	for _, slug := range slugs {
		s.syncSlug(ctx, conn, slug, date, day)
	}

	logging.Logger.Info("Stats sync end", zap.Int("links", len(slugs)))
	return nil
}

func (s *StatsSyncer) syncSlug(ctx context.Context, conn redis.Conn, slug, date, day string) {
	pv, err := s.stats.DailyPV(ctx, conn, slug, date)
	if err != nil {
		logging.Logger.Error("Failed to get daily PV", zap.String("slug", slug), zap.Error(err))
		return
	}
	uv, err := s.stats.DailyUV(ctx, conn, slug, date)
	if err != nil {
		logging.Logger.Error("Failed to get daily UV", zap.String("slug", slug), zap.Error(err))
		return
	}

	if pv > 0 || uv > 0 {
		stat := &model.DailyStat{Slug: slug, Date: day, PV: pv, UV: uv}
		if err := s.repo.UpsertDailyStat(ctx, stat); err != nil {
			logging.Logger.Error("Failed to upsert daily stat",
				zap.String("slug", slug),
				zap.String("date", day),
				zap.Int64("pv", pv),
				zap.Int64("uv", uv),
				zap.Error(err))
		}
	}

	totalUV, err := s.stats.TotalUV(ctx, conn, slug)
	if err != nil {
		logging.Logger.Error("Failed to get total UV", zap.String("slug", slug), zap.Error(err))
		return
	}
	if err := s.repo.UpdateUniqueVisitors(ctx, slug, totalUV); err != nil {
		logging.Logger.Error("Failed to update unique visitors",
			zap.String("slug", slug),
			zap.Int64("total_uv", totalUV),
			zap.Error(err))
	}
}
