package xlimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// limiterCore 限流器核心实现
// 将公共的决策流程与具体的后端实现分离
// 职责:
//   - 路由到策略解析
//   - 渲染存储键并调用后端检查
//   - 可观测性（日志、指标）与回调
type limiterCore struct {
	backend  Backend
	resolver *policyResolver
	opts     *options
	closed   atomic.Bool
}

// newLimiterCore 创建限流器核心
func newLimiterCore(backend Backend, resolver *policyResolver, opts *options) *limiterCore {
	return &limiterCore{
		backend:  backend,
		resolver: resolver,
		opts:     opts,
	}
}

// Allow 检查是否允许单个请求通过
func (c *limiterCore) Allow(ctx context.Context, key Key) (*Result, error) {
	return c.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许 n 个请求通过
//
// 除后端自身的计数状态变更外没有其他副作用。
func (c *limiterCore) AllowN(ctx context.Context, key Key, n int) (*Result, error) {
	if c.closed.Load() {
		return nil, ErrLimiterClosed
	}

	start := time.Now()
	policy := c.resolver.Resolve(key.Path)
	storageKey := c.opts.config.KeyPrefix + key.Render(policy.Pattern)

	res, err := c.backend.Check(ctx, storageKey, policy.Limit, policy.EffectiveBurst(), policy.Window, n)
	if err != nil {
		return nil, err
	}

	retryAfter := res.RetryAfter
	if retryAfter < 0 {
		retryAfter = 0
	}

	result := &Result{
		Allowed:    res.Allowed,
		Limit:      res.Limit,
		Remaining:  res.Remaining,
		ResetAt:    res.ResetAt,
		RetryAfter: retryAfter,
		Policy:     policy.Name,
		Key:        key.Render(policy.Pattern),
	}

	c.opts.metrics.RecordCheck(ctx, c.backend.Type(), policy.Name, result.Allowed, time.Since(start))

	if result.Allowed {
		c.callOnAllow(ctx, key, result)
	} else {
		c.callOnDeny(ctx, key, result)
	}

	return result, nil
}

// Reset 重置指定键在其匹配策略下的计数
func (c *limiterCore) Reset(ctx context.Context, key Key) error {
	if c.closed.Load() {
		return ErrLimiterClosed
	}

	policy := c.resolver.Resolve(key.Path)
	storageKey := c.opts.config.KeyPrefix + key.Render(policy.Pattern)
	return c.backend.Reset(ctx, storageKey)
}

// Query 查询当前配额状态（不消耗配额）
func (c *limiterCore) Query(ctx context.Context, key Key) (*QuotaInfo, error) {
	if c.closed.Load() {
		return nil, ErrLimiterClosed
	}

	policy := c.resolver.Resolve(key.Path)
	storageKey := c.opts.config.KeyPrefix + key.Render(policy.Pattern)

	remaining, resetAt, err := c.backend.Query(ctx, storageKey, policy.Limit, policy.EffectiveBurst(), policy.Window)
	if err != nil {
		return nil, err
	}

	return &QuotaInfo{
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		Policy:    policy.Name,
		Key:       key.Render(policy.Pattern),
	}, nil
}

// Close 关闭限流器
func (c *limiterCore) Close(_ context.Context) error {
	c.closed.Store(true)
	return c.backend.Close()
}

// callOnAllow 调用允许回调并记录日志
func (c *limiterCore) callOnAllow(ctx context.Context, key Key, result *Result) {
	if c.opts.onAllow != nil {
		c.opts.onAllow(key, result)
	}

	if c.opts.logger != nil {
		c.opts.logger.Debug(ctx, "rate limit allowed",
			slog.String("backend", c.backend.Type()),
			slog.String("policy", result.Policy),
			slog.String("key", result.Key),
			slog.Int("remaining", result.Remaining),
		)
	}
}

// callOnDeny 调用拒绝回调并记录日志
func (c *limiterCore) callOnDeny(ctx context.Context, key Key, result *Result) {
	if c.opts.onDeny != nil {
		c.opts.onDeny(key, result)
	}

	if c.opts.logger != nil {
		c.opts.logger.Warn(ctx, "rate limit exceeded",
			slog.String("backend", c.backend.Type()),
			slog.String("policy", result.Policy),
			slog.String("key", result.Key),
			slog.Int("limit", result.Limit),
			slog.Duration("retry_after", result.RetryAfter),
		)
	}
}

// 确保 limiterCore 实现了必要接口
var (
	_ Limiter  = (*limiterCore)(nil)
	_ Querier  = (*limiterCore)(nil)
	_ Resetter = (*limiterCore)(nil)
)
