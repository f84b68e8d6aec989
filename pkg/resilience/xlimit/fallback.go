package xlimit

import (
	"context"
	"errors"
	"log/slog"
)

// fallbackLimiter 带降级能力的限流器
// 当分布式计数器（共享存储）不可用时，自动降级到备选策略
//
// 默认策略是降级到本地计数：fail-open 在主防线失效时恰好放开闸门，
// fail-close 把基础设施抖动放大为整站故障，两者都比降级更糟。
type fallbackLimiter struct {
	distributed    Limiter
	local          Limiter
	strategy       FallbackStrategy
	opts           *options
	customFallback FallbackFunc
}

// newFallbackLimiter 创建带降级的限流器
func newFallbackLimiter(distributed, local Limiter, opts *options) *fallbackLimiter {
	return &fallbackLimiter{
		distributed:    distributed,
		local:          local,
		strategy:       opts.config.Fallback,
		opts:           opts,
		customFallback: opts.customFallback,
	}
}

// Allow 检查是否允许单个请求通过
func (f *fallbackLimiter) Allow(ctx context.Context, key Key) (*Result, error) {
	return f.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许 n 个请求通过
func (f *fallbackLimiter) AllowN(ctx context.Context, key Key, n int) (*Result, error) {
	result, err := f.distributed.AllowN(ctx, key, n)
	if err == nil {
		return result, nil
	}

	// 只有存储相关错误才触发降级；其他错误原样上抛
	if !IsStoreError(err) {
		return nil, err
	}

	f.logFallback(ctx, err)
	f.opts.metrics.RecordFallback(ctx, f.strategy, classifyError(err))

	if f.opts.onFallback != nil {
		f.opts.onFallback(key, f.strategy, err)
	}

	// 优先使用自定义降级函数
	if f.customFallback != nil {
		return f.customFallback(ctx, key, n, err)
	}

	return f.fallback(ctx, key, n)
}

// logFallback 记录降级日志
func (f *fallbackLimiter) logFallback(ctx context.Context, err error) {
	if f.opts.logger != nil {
		f.opts.logger.Warn(ctx, "rate limiter falling back, counter store unavailable",
			slog.String("strategy", string(f.strategy)),
			slog.String("reason", classifyError(err)),
			slog.String("error", err.Error()),
		)
	}
}

// fallback 执行降级策略
func (f *fallbackLimiter) fallback(ctx context.Context, key Key, n int) (*Result, error) {
	switch f.strategy {
	case FallbackOpen:
		return &Result{
			Allowed: true,
			Policy:  "fallback-open",
		}, nil

	case FallbackClose:
		return &Result{
			Allowed: false,
			Policy:  "fallback-close",
		}, ErrStoreUnavailable

	default:
		// FallbackLocal 及未设置时都走本地计数
		return f.local.AllowN(ctx, key, n)
	}
}

// Reset 重置指定键的计数
func (f *fallbackLimiter) Reset(ctx context.Context, key Key) error {
	var errs []error

	if r, ok := f.distributed.(Resetter); ok {
		if err := r.Reset(ctx, key); err != nil && !IsStoreError(err) {
			errs = append(errs, err)
		}
	}

	if r, ok := f.local.(Resetter); ok {
		if err := r.Reset(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Query 查询当前配额状态（不消耗配额）
// 优先从分布式限流器查询，存储失败时降级到本地
func (f *fallbackLimiter) Query(ctx context.Context, key Key) (*QuotaInfo, error) {
	if q, ok := f.distributed.(Querier); ok {
		info, err := q.Query(ctx, key)
		if err == nil {
			return info, nil
		}

		if IsStoreError(err) {
			if localQ, localOK := f.local.(Querier); localOK {
				return localQ.Query(ctx, key)
			}
		}

		return nil, err
	}

	if q, ok := f.local.(Querier); ok {
		return q.Query(ctx, key)
	}

	return nil, ErrQueryNotSupported
}

// Close 关闭限流器
func (f *fallbackLimiter) Close(ctx context.Context) error {
	var errs []error

	if err := f.distributed.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := f.local.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// 确保 fallbackLimiter 实现了可选接口
var (
	_ Limiter  = (*fallbackLimiter)(nil)
	_ Querier  = (*fallbackLimiter)(nil)
	_ Resetter = (*fallbackLimiter)(nil)
)
