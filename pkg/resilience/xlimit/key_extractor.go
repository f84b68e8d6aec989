package xlimit

import (
	"net/http"
	"strings"
)

// 默认请求头名称
const (
	headerForwardedFor    = "X-Forwarded-For"
	headerRealIP          = "X-Real-IP"
	headerPlatformForward = "X-Vercel-Forwarded-For"

	// loopbackIP 本地/开发执行时的占位标识
	loopbackIP = "127.0.0.1"
)

// HTTPKeyExtractor 从 HTTP 请求中提取限流键
//
// 客户端 IP 的取值优先级（取第一个非空项）：
//  1. 转发链头（X-Forwarded-For）的第一个条目——最靠近边缘的原始客户端
//  2. Real-IP 头
//  3. 平台专属转发头的第一个条目
//  4. 回环占位
//
// 基于请求头的身份识别可被客户端伪造，这是架构上接受的固有局限，
// 不在此做加密级别的客户端证明。
type HTTPKeyExtractor struct {
	forwardedForHeader string
	realIPHeader       string
	platformHeader     string
}

// HTTPKeyExtractorOption HTTP 键提取器选项
type HTTPKeyExtractorOption func(*HTTPKeyExtractor)

// DefaultHTTPKeyExtractor 创建默认的 HTTP 键提取器
func DefaultHTTPKeyExtractor() *HTTPKeyExtractor {
	return &HTTPKeyExtractor{
		forwardedForHeader: headerForwardedFor,
		realIPHeader:       headerRealIP,
		platformHeader:     headerPlatformForward,
	}
}

// NewHTTPKeyExtractor 创建自定义的 HTTP 键提取器
func NewHTTPKeyExtractor(opts ...HTTPKeyExtractorOption) *HTTPKeyExtractor {
	e := DefaultHTTPKeyExtractor()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract 从 HTTP 请求中提取限流键
func (e *HTTPKeyExtractor) Extract(r *http.Request) Key {
	if r == nil {
		return Key{}
	}

	return Key{
		IP:   e.clientIP(r),
		Path: r.URL.Path,
	}
}

// clientIP 按优先级解析客户端 IP
func (e *HTTPKeyExtractor) clientIP(r *http.Request) string {
	if ip := firstEntry(r.Header.Get(e.forwardedForHeader)); ip != "" {
		return ip
	}

	if ip := strings.TrimSpace(r.Header.Get(e.realIPHeader)); ip != "" {
		return ip
	}

	if ip := firstEntry(r.Header.Get(e.platformHeader)); ip != "" {
		return ip
	}

	return loopbackIP
}

// firstEntry 返回逗号分隔列表的第一个非空条目
func firstEntry(v string) string {
	if v == "" {
		return ""
	}
	if idx := strings.IndexByte(v, ','); idx >= 0 {
		v = v[:idx]
	}
	return strings.TrimSpace(v)
}

// WithForwardedForHeader 设置转发链头名称
func WithForwardedForHeader(header string) HTTPKeyExtractorOption {
	return func(e *HTTPKeyExtractor) {
		e.forwardedForHeader = header
	}
}

// WithRealIPHeader 设置 Real-IP 头名称
func WithRealIPHeader(header string) HTTPKeyExtractorOption {
	return func(e *HTTPKeyExtractor) {
		e.realIPHeader = header
	}
}

// WithPlatformHeader 设置平台专属转发头名称
func WithPlatformHeader(header string) HTTPKeyExtractorOption {
	return func(e *HTTPKeyExtractor) {
		e.platformHeader = header
	}
}
