// Package xlimit 提供 edgegate 网关的限流决策引擎。
//
// 核心能力：
//   - 路由到策略的解析（精确匹配优先，其次最长前缀，最后默认策略）
//   - 客户端身份提取（转发链首个 IP → Real-IP → 平台转发头 → 回环占位）
//   - 双模式计数：分布式滑动窗口（Redis + redis_rate GCRA）与
//     本地固定窗口（进程内存，概率式清扫）
//   - 存储不可用时自动降级，保证"既不全放行也不全拒绝"
//
// # 使用方式
//
// 生产环境（Redis 可用，自动降级到本地）：
//
//	limiter, err := xlimit.NewWithFallback(rdb,
//	    xlimit.WithPolicies(xlimit.DefaultPolicies()...),
//	)
//	result, err := limiter.Allow(ctx, xlimit.Key{IP: "203.0.113.7", Path: "/api/leads"})
//
// 未配置共享存储时（合法的降级运行模式，不是错误）：
//
//	limiter, err := xlimit.NewLocal(
//	    xlimit.WithPolicies(xlimit.DefaultPolicies()...),
//	)
//
// # 一致性语义
//
// 分布式后端由 Redis 保证单键 check-and-increment 的原子性，多实例并发
// 请求同一客户端时不会同时占用最后一个配额槽。滑动窗口（GCRA）确保客户端
// 无法通过跨越两个固定日历窗口的方式突破 limit。
//
// 本地后端是固定窗口，且仅在单进程内生效：多实例部署下降级模式的有效上限
// 为 limit × 实例数。这是文档化的已接受弱点，不是缺陷。
//
// # 错误策略
//
// 分布式检查的失败（网络、超时、认证）通过 IsStoreError 识别，由降级层
// 消化，永远不会透传给客户端；唯一面向客户端的失败是 429 拒绝。
package xlimit
