package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"golink-redirect/internal/model"
)

var ErrLinkNotFound = errors.New("link not found")

// LinkStore 重定向路径依赖的三个存储操作：按 key 读取、原子自增、追加点击记录
type LinkStore interface {
	GetLink(ctx context.Context, slug string) (*model.Link, error)
	IncrementClick(ctx context.Context, slug string, at time.Time) error
	AddClick(ctx context.Context, click *model.Click) (string, error)
}

type GormLinkStore struct {
	db *gorm.DB
}

func NewGormLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

func (s *GormLinkStore) GetLink(ctx context.Context, slug string) (*model.Link, error) {
	var link model.Link
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link %q: %w", slug, err)
	}
	return &link, nil
}

// IncrementClick 在数据库端执行 click_count = click_count + 1，并发点击不会丢失计数
func (s *GormLinkStore) IncrementClick(ctx context.Context, slug string, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("slug = ?", slug).
		UpdateColumns(map[string]interface{}{
			"click_count":     gorm.Expr("click_count + ?", 1),
			"last_clicked_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("increment click count %q: %w", slug, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// AddClick 追加一条点击记录，ID 与时间戳由服务端生成
func (s *GormLinkStore) AddClick(ctx context.Context, click *model.Click) (string, error) {
	if click.ID == "" {
		click.ID = uuid.NewString()
	}
	if click.Ts.IsZero() {
		click.Ts = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return "", fmt.Errorf("add click for %q: %w", click.Slug, err)
	}
	return click.ID, nil
}
