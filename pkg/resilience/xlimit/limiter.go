package xlimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// 核心接口定义
// =============================================================================

// Limiter 限流器核心接口
//
// 提供限流检查和资源清理的基本能力。
// 实现应该是并发安全的。
//
// Allow/AllowN 的返回契约：
//   - err == nil 时，返回的 *Result 必非 nil
//   - err != nil 时，*Result 可能为 nil，也可能携带拒绝信息（如 FallbackClose）
type Limiter interface {
	// Allow 检查是否允许单个请求通过
	// 如果被限流，返回的 Result.Allowed 为 false
	Allow(ctx context.Context, key Key) (*Result, error)

	// AllowN 检查是否允许 n 个请求通过
	AllowN(ctx context.Context, key Key, n int) (*Result, error)

	// Close 关闭限流器，释放资源
	Close(ctx context.Context) error
}

// =============================================================================
// 可选扩展接口（通过类型断言使用）
// =============================================================================

// Querier 配额查询接口
//
// 实现此接口的限流器支持查询当前配额状态（不消耗配额）。
type Querier interface {
	// Query 查询当前配额状态（不消耗配额）
	Query(ctx context.Context, key Key) (*QuotaInfo, error)
}

// Resetter 配额重置接口
//
// 实现此接口的限流器支持手动重置配额。
type Resetter interface {
	// Reset 重置指定键的限流计数
	Reset(ctx context.Context, key Key) error
}

// QuotaInfo 配额信息
type QuotaInfo struct {
	// Limit 配额上限
	Limit int
	// Remaining 剩余配额
	Remaining int
	// ResetAt 配额重置时间
	ResetAt time.Time
	// Policy 匹配的策略名称
	Policy string
	// Key 渲染后的限流键
	Key string
}

// =============================================================================
// 工厂函数
// =============================================================================

// New 创建分布式限流器
//
// 使用 Redis 作为共享计数存储，多实例共享配额。
// 如果配置了 Fallback，会自动包装为降级限流器。
func New(rdb redis.UniversalClient, opts ...Option) (Limiter, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := cfg.initMetrics(); err != nil {
		return nil, err
	}

	resolver := newPolicyResolver(cfg.config.Policies)

	var backend Backend = newRedisBackend(rdb, cfg.config.CheckTimeout)
	if cfg.config.EnableBreaker {
		backend = newBreakerBackend(backend, cfg.onBreakerChange)
	}

	distributed := newLimiterCore(backend, resolver, cfg)

	if cfg.config.Fallback != "" {
		local, err := newLocalCore(resolver, cfg)
		if err != nil {
			return nil, err
		}
		return newFallbackLimiter(distributed, local, cfg), nil
	}

	return distributed, nil
}

// NewLocal 创建本地限流器
//
// 使用进程内存作为计数存储，不依赖共享存储。
// 这是未配置共享存储时的合法运行模式：每个实例独立执行配额，
// 有效上限为 limit × 实例数。
func NewLocal(opts ...Option) (Limiter, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := cfg.initMetrics(); err != nil {
		return nil, err
	}

	resolver := newPolicyResolver(cfg.config.Policies)
	return newLocalCore(resolver, cfg)
}

// NewWithFallback 创建带降级的分布式限流器
//
// 共享存储不可用时自动降级到本地计数。
// 这是推荐的生产环境使用方式。
//
// 默认降级策略 prepend 到用户选项之前，用户通过 opts 传入的
// WithFallback 优先级更高（后执行的 Option 覆盖先执行的）。
func NewWithFallback(rdb redis.UniversalClient, opts ...Option) (Limiter, error) {
	opts = append([]Option{WithFallback(FallbackLocal)}, opts...)
	return New(rdb, opts...)
}

// newLocalCore 按配置构建本地核心：选择存储实现并注入时钟
func newLocalCore(resolver *policyResolver, cfg *options) (*limiterCore, error) {
	store := cfg.store
	if store == nil && cfg.config.MaxLocalEntries > 0 {
		var err error
		store, err = newLRUStore(cfg.config.MaxLocalEntries)
		if err != nil {
			return nil, err
		}
	}

	backend := newLocalBackend(store, cfg.config.SweepProbability, cfg.now)
	return newLimiterCore(backend, resolver, cfg), nil
}
