package xlimit

import "strings"

// keyDelimiter 分隔客户端标识与路由模式
// '|' 在 IP 字符串和 URL 路径中都不会出现，保证两个维度不串扰：
// 同一客户端访问不同路由、不同客户端访问同一路由，配额互不影响
const keyDelimiter = "|"

// Key 限流键：客户端标识 + 请求路径
//
// Path 用于解析策略；最终的存储键由客户端 IP 和匹配到的路由模式拼接而成。
type Key struct {
	// IP 解析出的客户端 IP
	IP string

	// Path 请求路径，如 /api/leads
	Path string
}

// Render 渲染存储键（不含前缀）：IP + "|" + 匹配到的路由模式
func (k Key) Render(pattern string) string {
	return k.IP + keyDelimiter + pattern
}

// IsEmpty 检查 Key 是否为空
func (k Key) IsEmpty() bool {
	return k.IP == "" && k.Path == ""
}

// String 返回 Key 的字符串表示，用于日志和调试
func (k Key) String() string {
	var b strings.Builder
	b.Grow(len(k.IP) + len(k.Path) + 9)
	b.WriteString("ip=")
	b.WriteString(k.IP)
	b.WriteString(",path=")
	b.WriteString(k.Path)
	return b.String()
}
