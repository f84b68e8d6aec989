// Package xgeo 提供基于边缘平台地理头的请求地理/语言环境解析。
//
// xgeo 从平台注入的地理头（国家、城市、区域）和 Accept-Language 头推导出
// 每个请求的地理上下文（Context），包括国家、语言环境、货币和时区。
// 解析后的语言环境通过 Cookie 持久化到客户端，后续请求可跳过头解析。
//
// 核心能力：
//   - 国家解析：直接读取平台地理头，缺失时返回哨兵值 "DEFAULT"
//   - 语言环境解析：Cookie 优先 → Accept-Language 质量值排序 → 国家默认值
//   - 货币/时区映射：按国家查表，未知国家回退 USD/UTC
//   - 区域分类：国家码集合成员测试，仅用于缓存提示
//
// 使用示例：
//
//	resolver := xgeo.NewResolver()
//	geo := resolver.Resolve(req)
//	w.Header().Set("X-User-Country", geo.Country)
//	w.Header().Set("X-User-Locale", geo.Locale)
//
// 设计决策：解析永不失败。所有分支都有全量默认值，畸形输入
// （无法解析的 Accept-Language、缺失的地理头）通过默认值恢复，
// 不向调用方暴露错误。
package xgeo
