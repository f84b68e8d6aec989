package xlimit

import (
	"sort"
	"strings"
)

// PolicyProvider 策略提供器接口
//
// 用于根据请求路径查找适用的限流策略。
// 解析永远成功：默认兜底策略在启动时强制存在。
type PolicyProvider interface {
	// Resolve 根据请求路径查找适用的策略
	Resolve(path string) Policy
}

// policyResolver 路由到策略的解析器
//
// 匹配顺序：
//  1. 精确匹配（路径与 Pattern 完全相等）
//  2. 最长前缀匹配（多个前缀同时命中时取最长的，保证可预测性）
//  3. 默认兜底策略
type policyResolver struct {
	exact    map[string]Policy
	prefixes []Policy // 按 Pattern 长度降序
	fallback Policy
}

// newPolicyResolver 创建策略解析器
// 调用方保证 policies 已通过 Config.Validate（含默认策略存在性检查）
func newPolicyResolver(policies []Policy) *policyResolver {
	r := &policyResolver{
		exact: make(map[string]Policy, len(policies)),
	}

	for _, policy := range policies {
		if policy.IsDefault() {
			r.fallback = policy
			continue
		}
		r.exact[policy.Pattern] = policy
		r.prefixes = append(r.prefixes, policy)
	}

	// 最长前缀优先；长度相同时保持声明顺序
	sort.SliceStable(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].Pattern) > len(r.prefixes[j].Pattern)
	})

	return r
}

// Resolve 实现 PolicyProvider 接口
func (r *policyResolver) Resolve(path string) Policy {
	if policy, ok := r.exact[path]; ok {
		return policy
	}

	for _, policy := range r.prefixes {
		if strings.HasPrefix(path, policy.Pattern) {
			return policy
		}
	}

	return r.fallback
}

// 确保 policyResolver 实现了 PolicyProvider 接口
var _ PolicyProvider = (*policyResolver)(nil)
