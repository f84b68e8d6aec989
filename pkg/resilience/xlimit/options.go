package xlimit

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/edgegate/pkg/observability/xlog"
)

// FallbackFunc 自定义降级函数类型
// 当分布式计数器不可用时调用
type FallbackFunc func(ctx context.Context, key Key, n int, originalErr error) (*Result, error)

// options 内部配置结构
type options struct {
	config          Config
	logger          xlog.Logger
	meterProvider   metric.MeterProvider
	metrics         *Metrics
	onAllow         func(key Key, result *Result)
	onDeny          func(key Key, result *Result)
	onFallback      func(key Key, strategy FallbackStrategy, err error)
	onBreakerChange func(from, to gobreaker.State)
	customFallback  FallbackFunc
	store           Store
	now             func() time.Time
	initErr         error // 配置加载阶段的错误，延迟到 New/NewLocal 时返回
}

// validate 验证选项并返回初始化阶段收集的错误
// Option 函数签名不支持返回错误，配置加载错误暂存在 initErr 中，
// 在 New/NewLocal 构造时统一检查。
func (o *options) validate() error {
	if o.initErr != nil {
		return o.initErr
	}
	return o.config.Validate()
}

// initMetrics 按配置初始化指标收集器
func (o *options) initMetrics() error {
	if !o.config.EnableMetrics || o.meterProvider == nil {
		return nil
	}

	metrics, err := NewMetrics(o.meterProvider)
	if err != nil {
		return err
	}
	o.metrics = metrics
	return nil
}

// Option 配置选项函数
type Option func(*options)

// defaultOptions 返回默认配置
func defaultOptions() *options {
	return &options{
		config: DefaultConfig(),
	}
}

// WithPolicies 设置策略表，覆盖内置策略
// 策略表必须自带一条 PatternDefault 兜底策略
func WithPolicies(policies ...Policy) Option {
	return func(o *options) {
		o.config.Policies = policies
	}
}

// WithKeyPrefix 设置存储键前缀
// 默认为 "edgegate:rl:"
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.config.KeyPrefix = prefix
	}
}

// WithFallback 设置共享存储不可用时的降级策略
// 可选值：FallbackLocal, FallbackOpen, FallbackClose
func WithFallback(strategy FallbackStrategy) Option {
	return func(o *options) {
		o.config.Fallback = strategy
	}
}

// WithCheckTimeout 设置单次分布式检查的时间预算
// 超出预算视为存储失败并触发降级
func WithCheckTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.config.CheckTimeout = timeout
	}
}

// WithSweepProbability 设置本地计数器的清扫触发概率
func WithSweepProbability(p float64) Option {
	return func(o *options) {
		o.config.SweepProbability = p
	}
}

// WithMaxLocalEntries 设置本地计数器的条目上限
// 大于 0 时使用有界 LRU 存储
func WithMaxLocalEntries(n int) Option {
	return func(o *options) {
		o.config.MaxLocalEntries = n
	}
}

// WithBreaker 设置是否启用分布式后端的熔断器
func WithBreaker(enabled bool) Option {
	return func(o *options) {
		o.config.EnableBreaker = enabled
	}
}

// WithMetrics 设置是否启用指标收集
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.config.EnableMetrics = enabled
	}
}

// WithConfig 使用完整配置覆盖
func WithConfig(config Config) Option {
	return func(o *options) {
		o.config = config
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider
// 如果不设置，不会收集指标
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithStore 注入本地计数器的存储实现
// 测试可以传入确定性的全新存储
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithClock 注入本地计数器的时钟
// 测试可以传入确定性时钟
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithOnAllow 设置请求通过时的回调
func WithOnAllow(fn func(key Key, result *Result)) Option {
	return func(o *options) {
		o.onAllow = fn
	}
}

// WithOnDeny 设置请求被拒绝时的回调
func WithOnDeny(fn func(key Key, result *Result)) Option {
	return func(o *options) {
		o.onDeny = fn
	}
}

// WithOnFallback 设置降级时的回调
func WithOnFallback(fn func(key Key, strategy FallbackStrategy, err error)) Option {
	return func(o *options) {
		o.onFallback = fn
	}
}

// WithOnBreakerChange 设置熔断器状态变更回调
func WithOnBreakerChange(fn func(from, to gobreaker.State)) Option {
	return func(o *options) {
		o.onBreakerChange = fn
	}
}

// WithCustomFallback 设置自定义降级函数
// 优先于 WithFallback 设置的策略
func WithCustomFallback(fn FallbackFunc) Option {
	return func(o *options) {
		o.customFallback = fn
	}
}
