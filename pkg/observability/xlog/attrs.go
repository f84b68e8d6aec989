package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key 常量，保持跨包字段名一致
const (
	// KeyError 错误字段的标准 key
	KeyError = "error"

	// KeyComponent 组件名称字段的标准 key
	KeyComponent = "component"

	// KeyRequestID 请求 ID 字段的标准 key
	KeyRequestID = "request_id"

	// KeyMethod HTTP 方法字段的标准 key
	KeyMethod = "method"

	// KeyPath 请求路径字段的标准 key
	KeyPath = "path"

	// KeyStatusCode HTTP 状态码字段的标准 key
	KeyStatusCode = "status_code"

	// KeyDuration 耗时字段的标准 key
	KeyDuration = "duration"
)

// Err 创建错误属性
// 如果 err 为 nil，返回空属性（会被忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 创建组件名称属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// RequestID 创建请求 ID 属性
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method 创建 HTTP 方法属性
func Method(method string) slog.Attr {
	return slog.String(KeyMethod, method)
}

// Path 创建请求路径属性
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// StatusCode 创建 HTTP 状态码属性
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// Duration 创建耗时属性
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}
