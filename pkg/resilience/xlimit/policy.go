package xlimit

import (
	"fmt"
	"strings"
	"time"
)

// PatternDefault 默认兜底策略的模式，匹配所有未被其他策略覆盖的路径
const PatternDefault = "*"

// Policy 限流策略：一个路由模式对应的 (limit, window) 配额
//
// Pattern 既参与精确匹配也参与前缀匹配；PatternDefault 只作为兜底。
// 策略表在进程启动时加载一次，之后只读。
type Policy struct {
	// Name 策略名称，用于日志和指标
	Name string `json:"name" yaml:"name" koanf:"name"`

	// Pattern 路由模式：精确路径或路径前缀，"*" 表示默认兜底
	Pattern string `json:"pattern" yaml:"pattern" koanf:"pattern"`

	// Limit 窗口内允许的最大请求数
	Limit int `json:"limit" yaml:"limit" koanf:"limit"`

	// Window 限流窗口时长
	Window time.Duration `json:"window" yaml:"window" koanf:"window"`

	// Burst 突发容量，为 0 时等于 Limit
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty" koanf:"burst"`
}

// NewPolicy 创建一个新策略
func NewPolicy(name, pattern string, limit int, window time.Duration) Policy {
	return Policy{
		Name:    name,
		Pattern: pattern,
		Limit:   limit,
		Window:  window,
	}
}

// Validate 验证策略配置是否有效
func (p Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	if p.Pattern == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidPolicy)
	}
	if p.Pattern != PatternDefault && !strings.HasPrefix(p.Pattern, "/") {
		return fmt.Errorf("%w: pattern %q must start with '/'", ErrInvalidPolicy, p.Pattern)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidPolicy)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidPolicy)
	}
	if p.Burst < 0 {
		return fmt.Errorf("%w: burst cannot be negative", ErrInvalidPolicy)
	}
	return nil
}

// IsDefault 检查是否是默认兜底策略
func (p Policy) IsDefault() bool {
	return p.Pattern == PatternDefault
}

// EffectiveBurst 返回有效的突发容量
// 如果 Burst 为 0，返回 Limit
func (p Policy) EffectiveBurst() int {
	if p.Burst == 0 {
		return p.Limit
	}
	return p.Burst
}

// DefaultPolicies 返回内置策略表
//
// 覆盖注册/OTP 等敏感端点（小配额、小时级窗口）、AI 内容端点与通用写端点
// （中等配额、小时级窗口）以及默认兜底（较大配额、分钟级窗口）。
// 数值可通过配置覆盖，形状保持不变。
func DefaultPolicies() []Policy {
	return []Policy{
		NewPolicy("auth-register", "/api/auth/register", 5, time.Hour),
		NewPolicy("otp-send", "/api/auth/otp/send", 5, time.Hour),
		NewPolicy("otp-verify", "/api/auth/otp/verify", 10, 10*time.Minute),
		NewPolicy("ai-content", "/api/ai/", 20, time.Hour),
		NewPolicy("leads", "/api/leads", 30, time.Hour),
		NewPolicy("listings", "/api/listings", 30, time.Hour),
		NewPolicy("bookings", "/api/bookings", 30, time.Hour),
		NewPolicy("default", PatternDefault, 100, time.Minute),
	}
}
