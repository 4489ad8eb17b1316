package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"golink-redirect/internal/model"
)

// StatsStore 定时统计任务使用的存储操作
type StatsStore struct {
	db *gorm.DB
}

func NewStatsStore(db *gorm.DB) *StatsStore {
	return &StatsStore{db: db}
}

// ListActiveSlugs 返回未禁用短链的 slug
func (s *StatsStore) ListActiveSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := s.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("disabled = ?", false).
		Order("slug").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// UpsertDailyStat 按 (slug, date) 写入或覆盖当日 PV/UV
func (s *StatsStore) UpsertDailyStat(ctx context.Context, stat *model.DailyStat) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"pv", "uv", "updated_at"}),
		}).
		Create(stat).Error
}

func (s *StatsStore) UpdateUniqueVisitors(ctx context.Context, slug string, uv int64) error {
	return s.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("slug = ?", slug).
		UpdateColumn("unique_visitors", uv).Error
}
