package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"golink-redirect/constant"
	"golink-redirect/internal/model"
	"golink-redirect/pkg/config"
	"golink-redirect/pkg/logging"
)

// CachedLinkStore 为 GetLink 增加 Redis 旁路缓存，写操作直接透传。
// 不存在的 slug 以空值缓存 negativeTTL，防止缓存穿透。
type CachedLinkStore struct {
	LinkStore
	pool        *redis.Pool
	ttl         time.Duration
	negativeTTL time.Duration
}

func NewCachedLinkStore(store LinkStore, pool *redis.Pool, ttl, negativeTTL time.Duration) *CachedLinkStore {
	return &CachedLinkStore{
		LinkStore:   store,
		pool:        pool,
		ttl:         ttl,
		negativeTTL: negativeTTL,
	}
}

// WithLinkCache 按配置为 store 加上 Redis 缓存；未配置 Redis 或 ttl 为 0 时原样返回
func WithLinkCache(store LinkStore, pool *redis.Pool, settings config.CacheSettings) LinkStore {
	if pool == nil || settings.TTL <= 0 {
		return store
	}
	return NewCachedLinkStore(store, pool, settings.TTL, settings.NegativeTTL)
}

func (s *CachedLinkStore) GetLink(ctx context.Context, slug string) (*model.Link, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		logging.Logger.Warn("Redis unavailable, reading link from database",
			zap.String("slug", slug),
			zap.Error(err))
		return s.LinkStore.GetLink(ctx, slug)
	}
	defer closeConn(conn)

	cacheKey := constant.GetLinkCacheKey(slug)
	cached, err := redis.Bytes(redis.DoContext(conn, ctx, "GET", cacheKey))
	switch {
	case err == nil && len(cached) == 0:
		return nil, ErrLinkNotFound
	case err == nil:
		var link model.Link
		jsonErr := json.Unmarshal(cached, &link)
		if jsonErr == nil {
			return &link, nil
		}
		logging.Logger.Warn("Failed to unmarshal cached link",
			zap.String("cache_key", cacheKey),
			zap.Error(jsonErr))
	case !errors.Is(err, redis.ErrNil):
		logging.Logger.Warn("Error getting link from Redis",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	link, err := s.LinkStore.GetLink(ctx, slug)
	if errors.Is(err, ErrLinkNotFound) {
		if s.negativeTTL > 0 {
			s.set(ctx, conn, cacheKey, []byte{}, s.negativeTTL)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(link); jsonErr == nil {
		s.set(ctx, conn, cacheKey, payload, s.ttl)
	}
	return link, nil
}

func (s *CachedLinkStore) set(ctx context.Context, conn redis.Conn, key string, value []byte, ttl time.Duration) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if _, err := redis.DoContext(conn, ctx, "SET", key, value, "EX", seconds); err != nil {
		logging.Logger.Warn("Failed to set link cache",
			zap.String("cache_key", key),
			zap.Error(err))
	}
}
