package repository

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"golink-redirect/pkg/config"
	"golink-redirect/pkg/logging"
)

// RedisPool 为 nil 表示未配置 Redis
var RedisPool *redis.Pool

// NewRedisPool 创建 redigo 连接池
func NewRedisPool(settings config.RedisSettings) *redis.Pool {
	addr := settings.Addr
	maxIdle := settings.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 10
	}

	return &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			conn, err := redis.DialContext(ctx, "tcp", addr,
				redis.DialPassword(settings.Password),
				redis.DialConnectTimeout(2*time.Second),
				redis.DialReadTimeout(2*time.Second),
				redis.DialWriteTimeout(2*time.Second),
			)
			if err != nil {
				logging.Logger.Error("Failed to connect Redis",
					zap.String("addr", addr),
					zap.Error(err),
				)
				return nil, err
			}

			logging.Logger.Debug("Redis connection established",
				zap.String("addr", addr),
				zap.Bool("auth", settings.Password != ""),
			)
			return conn, nil
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			if err != nil {
				logging.Logger.Warn("Redis connection health check failed",
					zap.String("addr", addr),
					zap.Error(err),
				)
			}
			return err
		},
	}
}

// InitRedis 初始化全局连接池；未配置地址时跳过
func InitRedis(settings config.RedisSettings) {
	if settings.Addr == "" {
		logging.Logger.Info("Redis not configured, link cache and visit stats disabled")
		return
	}
	RedisPool = NewRedisPool(settings)
}

// PingRedis 健康检查
func PingRedis(ctx context.Context, pool *redis.Pool) error {
	conn, err := pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer closeConn(conn)

	_, err = redis.DoContext(conn, ctx, "PING")
	return err
}

func closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		logging.Logger.Warn("Failed to close Redis connection", zap.Error(err))
	}
}
