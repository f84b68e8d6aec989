package xedge

import (
	"path"
	"strings"
)

// =============================================================================
// 路由分类
// =============================================================================

// 路径前缀常量
const (
	apiPrefix  = "/api/"
	cronPrefix = "/api/cron/"
	authPrefix = "/api/auth/"
)

// 认证路由中仍需限流的例外（注册与一次性验证码）
var limitedAuthPrefixes = []string{
	"/api/auth/register",
	"/api/auth/otp/",
}

// staticPrefixes 静态资源路径前缀
var staticPrefixes = []string{
	"/_next/static/",
	"/_next/image",
	"/static/",
	"/assets/",
}

// staticExtensions 静态资源文件扩展名
var staticExtensions = map[string]bool{
	".ico":   true,
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".svg":   true,
	".webp":  true,
	".css":   true,
	".js":    true,
	".map":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".txt":   true,
	".xml":   true,
}

// cacheablePages 可缓存公共页面白名单。
// 命中时附加 X-Edge-Cache-Tag 缓存提示头。
var cacheablePages = map[string]bool{
	"/":         true,
	"/listings": true,
	"/search":   true,
	"/about":    true,
}

// isStaticAsset 判断路径是否为静态资源。
// 静态资源不触发限流决策和地理解析。
func isStaticAsset(p string) bool {
	if p == "/favicon.ico" {
		return true
	}
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// isAPIRoute 判断路径是否为 API 路由。
func isAPIRoute(p string) bool {
	return strings.HasPrefix(p, apiPrefix)
}

// isExemptAPIRoute 判断 API 路径是否豁免限流。
//
// 豁免规则：
//   - 定时任务回调（/api/cron/）自带鉴权，不限流
//   - 认证回调（/api/auth/）由会话层保护，不限流；
//     但注册和一次性验证码子路径仍受限流约束
func isExemptAPIRoute(p string) bool {
	if strings.HasPrefix(p, cronPrefix) {
		return true
	}
	if strings.HasPrefix(p, authPrefix) {
		for _, limited := range limitedAuthPrefixes {
			if strings.HasPrefix(p, limited) {
				return false
			}
		}
		return true
	}
	return false
}

// isCacheablePage 判断路径是否属于可缓存页面白名单。
func isCacheablePage(p string) bool {
	return cacheablePages[strings.TrimSuffix(p, "/")] || cacheablePages[p]
}
