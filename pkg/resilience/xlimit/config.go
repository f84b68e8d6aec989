package xlimit

import (
	"fmt"
	"time"
)

// FallbackStrategy 共享存储不可用时的降级策略
type FallbackStrategy string

const (
	// FallbackLocal 降级到本地固定窗口限流（默认，推荐）
	// 多实例部署下有效上限为 limit × 实例数
	FallbackLocal FallbackStrategy = "local"

	// FallbackOpen 放行所有请求（fail-open）
	// 防护主线失效时恰好放开闸门，仅适用于限流非强需求的场景
	FallbackOpen FallbackStrategy = "open"

	// FallbackClose 拒绝所有请求（fail-close）
	// 会把基础设施抖动放大为整站故障，仅适用于安全要求极高的场景
	FallbackClose FallbackStrategy = "close"
)

// IsValid 检查降级策略是否有效
func (s FallbackStrategy) IsValid() bool {
	switch s {
	case FallbackLocal, FallbackOpen, FallbackClose, "":
		return true
	default:
		return false
	}
}

// Config 限流器配置
type Config struct {
	// KeyPrefix 共享存储键前缀，默认为 "edgegate:rl:"
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" koanf:"key_prefix"`

	// Policies 策略表，必须包含一条 PatternDefault 兜底策略
	Policies []Policy `json:"policies" yaml:"policies" koanf:"policies"`

	// Fallback 共享存储不可用时的降级策略
	Fallback FallbackStrategy `json:"fallback" yaml:"fallback" koanf:"fallback"`

	// CheckTimeout 单次分布式检查的时间预算，超时视为存储失败并降级
	CheckTimeout time.Duration `json:"check_timeout" yaml:"check_timeout" koanf:"check_timeout"`

	// SweepProbability 本地计数器在单次调用中触发过期清扫的概率，(0,1]
	SweepProbability float64 `json:"sweep_probability" yaml:"sweep_probability" koanf:"sweep_probability"`

	// MaxLocalEntries 本地计数器的条目上限
	// 大于 0 时使用有界 LRU 存储，给出比概率清扫更强的内存保证
	MaxLocalEntries int `json:"max_local_entries" yaml:"max_local_entries" koanf:"max_local_entries"`

	// EnableBreaker 是否在分布式后端外包一层熔断器
	// 存储连续失败后快速短路到降级路径，避免每个请求都等满超时
	EnableBreaker bool `json:"enable_breaker" yaml:"enable_breaker" koanf:"enable_breaker"`

	// EnableMetrics 是否启用指标收集
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics" koanf:"enable_metrics"`
}

// Validate 验证配置是否有效
func (c Config) Validate() error {
	if !c.Fallback.IsValid() {
		return fmt.Errorf("%w: invalid fallback strategy %q", ErrInvalidPolicy, c.Fallback)
	}

	if c.CheckTimeout < 0 {
		return fmt.Errorf("%w: check_timeout cannot be negative", ErrInvalidPolicy)
	}

	if c.SweepProbability < 0 || c.SweepProbability > 1 {
		return fmt.Errorf("%w: sweep_probability must be in [0, 1]", ErrInvalidPolicy)
	}

	if c.MaxLocalEntries < 0 {
		return fmt.Errorf("%w: max_local_entries cannot be negative", ErrInvalidPolicy)
	}

	hasDefault := false
	for i, policy := range c.Policies {
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("policies[%d]: %w", i, err)
		}
		if policy.IsDefault() {
			hasDefault = true
		}
	}

	if !hasDefault {
		return ErrNoDefaultPolicy
	}

	return nil
}

// Clone 创建配置的深拷贝
func (c Config) Clone() Config {
	clone := c
	if c.Policies != nil {
		clone.Policies = make([]Policy, len(c.Policies))
		copy(clone.Policies, c.Policies)
	}
	return clone
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		KeyPrefix:        "edgegate:rl:",
		Policies:         DefaultPolicies(),
		Fallback:         FallbackLocal,
		CheckTimeout:     500 * time.Millisecond,
		SweepProbability: 0.01,
		EnableMetrics:    true,
	}
}
