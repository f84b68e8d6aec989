package xlimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// breaker 默认参数
const (
	// breakerConsecutiveFailures 触发熔断的连续存储失败次数
	breakerConsecutiveFailures = 5

	// breakerOpenTimeout 熔断打开后转入半开的等待时间
	breakerOpenTimeout = 10 * time.Second
)

// breakerBackend 给分布式后端包一层熔断器
//
// 存储连续失败后打开熔断，后续请求直接以 ErrStoreUnavailable 快速失败，
// 由降级层接管，避免每个请求都等满 CheckTimeout。
// 限流拒绝（Allowed=false）是正常业务结果，不计入失败。
type breakerBackend struct {
	inner Backend
	cb    *gobreaker.CircuitBreaker[CheckResult]
}

// newBreakerBackend 创建带熔断的后端
func newBreakerBackend(inner Backend, onStateChange func(from, to gobreaker.State)) *breakerBackend {
	settings := gobreaker.Settings{
		Name:        "xlimit-store",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsStoreError(err)
		},
	}
	if onStateChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			onStateChange(from, to)
		}
	}

	return &breakerBackend{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[CheckResult](settings),
	}
}

// Type 返回被包装后端的类型
func (b *breakerBackend) Type() string {
	return b.inner.Type()
}

// Check 经熔断器执行检查
func (b *breakerBackend) Check(ctx context.Context, key string, limit, burst int, window time.Duration, n int) (CheckResult, error) {
	res, err := b.cb.Execute(func() (CheckResult, error) {
		return b.inner.Check(ctx, key, limit, burst, window, n)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return CheckResult{}, fmt.Errorf("%w: circuit open", ErrStoreUnavailable)
		}
		return CheckResult{}, err
	}
	return res, nil
}

// Reset 透传到被包装后端
func (b *breakerBackend) Reset(ctx context.Context, key string) error {
	return b.inner.Reset(ctx, key)
}

// Query 透传到被包装后端
func (b *breakerBackend) Query(ctx context.Context, key string, limit, burst int, window time.Duration) (
	remaining int, resetAt time.Time, err error) {
	return b.inner.Query(ctx, key, limit, burst, window)
}

// Close 关闭被包装后端
func (b *breakerBackend) Close() error {
	return b.inner.Close()
}

// 确保 breakerBackend 实现了 Backend 接口
var _ Backend = (*breakerBackend)(nil)
