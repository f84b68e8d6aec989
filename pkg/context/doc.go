// Package context 提供请求上下文解析相关的子包。
//
// 子包列表:
//   - xgeo: 地理/语言环境解析（国家、城市、语言、货币、时区）
//
// 设计原则:
//   - 上下文信息每请求从头部重新计算，不在服务端持久化
//   - 解析永不失败，畸形输入通过默认值恢复
package context
