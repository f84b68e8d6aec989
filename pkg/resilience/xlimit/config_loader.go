package xlimit

import (
	"fmt"

	"github.com/omeyang/edgegate/pkg/config/xconf"
)

// ConfigProvider 配置提供器接口
// 用于从外部源加载限流配置
type ConfigProvider interface {
	// Load 加载并验证配置
	Load() (Config, error)
}

// XConfProvider 基于 xconf 的配置提供器
type XConfProvider struct {
	cfg  xconf.Config
	path string
}

// NewXConfProvider 创建 xconf 配置提供器
// cfg: xconf 配置实例
// path: 配置路径，如 "ratelimit"
func NewXConfProvider(cfg xconf.Config, path string) *XConfProvider {
	return &XConfProvider{
		cfg:  cfg,
		path: path,
	}
}

// Load 从 xconf 加载配置
//
// 未设置的字段回落到 DefaultConfig 的取值，空的策略表回落到内置策略表。
func (p *XConfProvider) Load() (Config, error) {
	config := DefaultConfig()
	if err := p.cfg.Unmarshal(p.path, &config); err != nil {
		return Config{}, err
	}

	if len(config.Policies) == 0 {
		config.Policies = DefaultPolicies()
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// WithConfigProvider 使用配置提供器加载配置
//
// 加载错误上抛到 New/NewLocal，而不是静默降级到默认配置：
// 策略表加载失败后继续运行会以错误的配额放行流量。
func WithConfigProvider(provider ConfigProvider) Option {
	return func(o *options) {
		if provider == nil {
			return
		}

		config, err := provider.Load()
		if err != nil {
			o.initErr = fmt.Errorf("config provider load failed: %w", err)
			return
		}

		o.config = config
	}
}

// 确保 XConfProvider 实现了 ConfigProvider 接口
var _ ConfigProvider = (*XConfProvider)(nil)
