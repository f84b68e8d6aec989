package xlimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// =============================================================================
// 预定义错误
// =============================================================================

// 预定义错误，使用 errors.Is 进行比较
var (
	// ErrLimited 表示请求被限流
	ErrLimited = errors.New("xlimit: rate limited")

	// ErrStoreUnavailable 表示共享计数存储不可用
	ErrStoreUnavailable = errors.New("xlimit: counter store unavailable")

	// ErrInvalidPolicy 表示限流策略无效
	ErrInvalidPolicy = errors.New("xlimit: invalid policy")

	// ErrNoDefaultPolicy 表示策略表缺少默认兜底策略
	// 这是启动期配置错误，不是运行期错误
	ErrNoDefaultPolicy = errors.New("xlimit: no default policy configured")

	// ErrLimiterClosed 表示限流器已关闭
	ErrLimiterClosed = errors.New("xlimit: limiter closed")

	// ErrNilClient 表示传入了空的 Redis 客户端
	ErrNilClient = errors.New("xlimit: nil redis client")

	// ErrQueryNotSupported 表示后端不支持配额查询
	ErrQueryNotSupported = errors.New("xlimit: query not supported")
)

// =============================================================================
// 限流错误类型
// =============================================================================

// LimitError 限流错误
//
// 携带被拒绝请求的详细信息，供调用方构造响应。
// 实现了 error 接口和 errors.Is 支持。
type LimitError struct {
	// Key 被限流的键
	Key Key
	// Policy 触发限流的策略名称
	Policy string
	// Limit 配额上限
	Limit int
	// RetryAfter 建议的重试等待秒数
	RetryAfter int
}

// Error 实现 error 接口
func (e *LimitError) Error() string {
	return fmt.Sprintf("xlimit: rate limited by policy %q, key=%s, limit=%d, retry_after=%ds",
		e.Policy, e.Key.String(), e.Limit, e.RetryAfter)
}

// Is 支持 errors.Is 检查
func (e *LimitError) Is(target error) bool {
	return target == ErrLimited
}

// Unwrap 返回底层错误
func (e *LimitError) Unwrap() error {
	return ErrLimited
}

// =============================================================================
// 错误检查函数
// =============================================================================

// IsDenied 检查错误是否为限流拒绝
func IsDenied(err error) bool {
	return errors.Is(err, ErrLimited)
}

// storeRelatedErrors 包含所有触发降级的存储相关错误
//
// context.DeadlineExceeded 在列表中：对共享存储的调用超出时间预算时
// 必须视为存储失败并降级，绝不能让慢调用拖住请求。
var storeRelatedErrors = []error{
	ErrStoreUnavailable,
	context.DeadlineExceeded,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.EPIPE,
	syscall.ETIMEDOUT,
	io.EOF,
	io.ErrUnexpectedEOF,
}

// IsStoreError 检查是否是共享存储相关错误
//
// 使用类型断言和错误链检查，而不是字符串匹配。
// 返回 true 的错误会触发降级到本地计数器。
func IsStoreError(err error) bool {
	if err == nil {
		return false
	}

	for _, target := range storeRelatedErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return isNetworkError(err)
}

// isNetworkError 检查是否是网络相关错误
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// classifyError 将存储错误归类为低基数标签，用于指标上报
//
// 设计决策: 不用 err.Error() 原始字符串做标签，避免指标基数膨胀。
func classifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "conn_refused"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case isNetworkError(err):
		return "network"
	default:
		return "other"
	}
}
