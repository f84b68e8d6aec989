// Package xedge 提供边缘请求调度器：每个入站请求的统一入口。
//
// 调度器按路径将请求分为四类处理：
//   - 静态资源：直接透传，不触发限流和地理解析
//   - 非 API 页面：附加地理/语言环境头与缓存提示，透传
//   - 豁免 API 路由（定时任务回调、大部分认证回调）：透传
//   - 其他 API 路由：调用限流决策引擎，拒绝时返回 429，
//     放行时附加配额头后转发
//
// 使用示例：
//
//	dispatcher := xedge.NewDispatcher(limiter, upstream,
//		xedge.WithLogger(logger),
//	)
//	http.ListenAndServe(":8080", dispatcher)
//
// 设计决策：限流器内部故障（非配额拒绝）对客户端不可见，
// 调度器记录日志后放行请求。只有配额超限会以 429 暴露给客户端。
package xedge
