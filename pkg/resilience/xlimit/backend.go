package xlimit

import (
	"context"
	"time"
)

// CheckResult 后端检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	Limit      int           // 实际使用的配额上限
	Remaining  int           // 剩余配额
	ResetAt    time.Time     // 配额重置时间
	RetryAfter time.Duration // 如果被限流，建议重试等待时间
}

// Backend 定义计数后端的核心操作接口
// 职责单一：只负责底层的计数检查，不包含策略解析、可观测性等关注点
// 实现应该是并发安全的
type Backend interface {
	// Check 对渲染后的存储键执行一次 check-and-increment
	// 返回 CheckResult 和可能的错误；满足 IsStoreError 的错误会触发降级
	Check(ctx context.Context, key string, limit, burst int, window time.Duration, n int) (CheckResult, error)

	// Reset 重置指定键的计数
	Reset(ctx context.Context, key string) error

	// Query 查询当前配额状态（不消耗配额）
	Query(ctx context.Context, key string, limit, burst int, window time.Duration) (
		remaining int, resetAt time.Time, err error)

	// Close 释放后端自有资源（不关闭注入的外部客户端）
	Close() error

	// Type 返回后端类型标识，用于日志和指标
	Type() string
}
