package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/metrics"
)

const (
	DefaultBackgroundLimit   = 32
	DefaultBackgroundTimeout = 2 * time.Minute
)

// ErrBackgroundClosed Shutdown 之后提交的任务被拒绝.
var ErrBackgroundClosed = errors.New("background runner closed")

// Background 运行请求结束后仍需完成的任务（审核、通知）.
// 任务的失败只记录日志，不影响已返回的响应.
type Background struct {
	wg      sync.WaitGroup
	sem     chan struct{}
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewBackground limit 为同时运行的任务上限，timeout 为单个任务的超时.
func NewBackground(limit int, timeout time.Duration) *Background {
	if limit <= 0 {
		limit = DefaultBackgroundLimit
	}

	if timeout <= 0 {
		timeout = DefaultBackgroundTimeout
	}

	return &Background{sem: make(chan struct{}, limit), timeout: timeout}
}

// Go 异步执行 fn，ctx 的取消不会传递给任务，但保留其中的值（如 request id）.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBackgroundClosed
	}

	b.wg.Add(1)

	go b.run(context.WithoutCancel(ctx), name, fn)

	return nil
}

func (b *Background) run(ctx context.Context, name string, fn func(ctx context.Context) error) {
	defer b.wg.Done()

	b.sem <- struct{}{}
	defer func() { <-b.sem }()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	logger := log.Ctx(ctx).With().Str("task", name).Logger()

	defer func() {
		if r := recover(); r != nil {
			metrics.BackgroundTasks.WithLabelValues(name, "panic").Inc()
			logger.Error().Err(fmt.Errorf("panic: %v", r)).Msg("background task panicked")
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.BackgroundTasks.WithLabelValues(name, "error").Inc()
		logger.Warn().Err(err).Msg("background task failed")

		return
	}

	metrics.BackgroundTasks.WithLabelValues(name, "ok").Inc()
}

// Shutdown 停止接收新任务并等待已有任务完成，ctx 到期时返回 ctx.Err().
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})

	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
