package xlimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// localBackend 本地固定窗口后端
//
// 仅在共享存储不可达或未配置时使用。固定窗口接受了滑动窗口没有的
// 边界突发弱点，作为降级模式下文档化的权衡。
// 不跨进程协调：多实例各自独立计数。
type localBackend struct {
	mu    sync.Mutex
	store Store

	// sweepProbability 单次 Check 触发过期清扫的概率
	// 概率式触发摊薄了清扫成本，省掉了专用的后台调度器
	sweepProbability float64

	// now 与 randFloat 可注入，测试用确定性时钟与随机源
	now       func() time.Time
	randFloat func() float64
}

// newLocalBackend 创建本地后端
func newLocalBackend(store Store, sweepProbability float64, now func() time.Time) *localBackend {
	if store == nil {
		store = newMapStore()
	}
	if now == nil {
		now = time.Now
	}
	return &localBackend{
		store:            store,
		sweepProbability: sweepProbability,
		now:              now,
		randFloat:        rand.Float64,
	}
}

// Type 返回后端类型
func (b *localBackend) Type() string {
	return "local"
}

// Check 对固定窗口执行 check-and-increment
//
// 先递增再比较：窗口内第 limit+1 个请求被拒绝。计数钳制在 limit+1，
// 持续超量的客户端不会让计数无界增长。
func (b *localBackend) Check(ctx context.Context, key string, limit, _ int, window time.Duration, n int) (CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.maybeSweep(now)

	e, ok := b.store.Get(key)
	if !ok || now.After(e.ResetAt) {
		e = Entry{Count: 0, ResetAt: now.Add(window)}
	}

	e.Count += n
	allowed := e.Count <= limit
	if e.Count > limit+1 {
		e.Count = limit + 1
	}
	b.store.Set(key, e)

	remaining := limit - e.Count
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = e.ResetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
	}

	return CheckResult{
		Allowed:    allowed,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    e.ResetAt,
		RetryAfter: retryAfter,
	}, nil
}

// Reset 重置指定键的计数
func (b *localBackend) Reset(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store.Delete(key)
	return nil
}

// Query 查询当前配额状态（不消耗配额）
func (b *localBackend) Query(_ context.Context, key string, limit, _ int, window time.Duration) (
	remaining int, resetAt time.Time, err error) {

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	e, ok := b.store.Get(key)
	if !ok || now.After(e.ResetAt) {
		return limit, now.Add(window), nil
	}

	remaining = limit - e.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, e.ResetAt, nil
}

// Close 关闭后端
func (b *localBackend) Close() error {
	return nil
}

// maybeSweep 以配置的概率清扫过期条目，调用方持锁
func (b *localBackend) maybeSweep(now time.Time) {
	if b.sweepProbability <= 0 {
		return
	}
	if b.sweepProbability >= 1 || b.randFloat() < b.sweepProbability {
		b.store.Sweep(now)
	}
}

// 确保 localBackend 实现了 Backend 接口
var _ Backend = (*localBackend)(nil)
