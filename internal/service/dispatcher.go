package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"golink-redirect/internal/metrics"
)

// Task 后台任务，返回的错误只会被记录
type Task func(ctx context.Context) error

// Dispatcher 启动与请求解耦的后台任务：不等待、不重试、错误与 panic 只记录日志和指标
type Dispatcher struct {
	base   context.Context
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewDispatcher base 只传递 value，不传递取消信号
func NewDispatcher(base context.Context, logger *zap.Logger) *Dispatcher {
	if base == nil {
		base = context.Background()
	}
	return &Dispatcher{
		base:   context.WithoutCancel(base),
		logger: logger,
	}
}

// Go 立即返回；任务在独立 goroutine 中运行至自然结束
func (d *Dispatcher) Go(name string, task Task) {
	d.wg.Add(1)
	metrics.DetachedTasksInFlight.Inc()

	go func() {
		defer d.wg.Done()
		defer metrics.DetachedTasksInFlight.Dec()
		defer func() {
			if rec := recover(); rec != nil {
				d.fail(name, fmt.Errorf("panic: %v", rec))
			}
		}()

		if err := task(d.base); err != nil {
			d.fail(name, err)
		}
	}()
}

func (d *Dispatcher) fail(name string, err error) {
	metrics.DetachedTaskFailures.WithLabelValues(name).Inc()
	d.logger.Error("Detached task failed",
		zap.String("task", name),
		zap.Error(err))
}

// Wait 等待在途任务结束，仅用于优雅关闭和测试；ctx 到期时返回 ctx.Err()
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
