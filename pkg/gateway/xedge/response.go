package xedge

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/omeyang/edgegate/pkg/context/xgeo"
	"github.com/omeyang/edgegate/pkg/resilience/xlimit"
)

// =============================================================================
// 响应头常量
// =============================================================================

const (
	headerRequestID = "X-Request-ID"

	headerUserCountry  = "X-User-Country"
	headerUserLocale   = "X-User-Locale"
	headerUserCurrency = "X-User-Currency"
	headerUserTimezone = "X-User-Timezone"
	headerUserCity     = "X-User-City"
	headerUserRegion   = "X-User-Region"

	headerCacheTag = "X-Edge-Cache-Tag"
)

// regionalCacheHint 区域国家的缓存提示标签
const regionalCacheHint = "region:gcc"

// =============================================================================
// 响应塑形
// =============================================================================

// rejectionBody 429 响应体。retryAfter 单位为秒。
type rejectionBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// writeRejection 写出结构化的限流拒绝响应。
func writeRejection(w http.ResponseWriter, result *xlimit.Result) {
	result.SetHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)

	// 编码失败无法补救，头已写出
	_ = json.NewEncoder(w).Encode(rejectionBody{
		Error:      "rate_limited",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfterSeconds(),
	})
}

// setIdentityHeaders 附加国家与语言环境头（所有放行的 API 响应）。
func setIdentityHeaders(w http.ResponseWriter, geo xgeo.Context) {
	w.Header().Set(headerUserCountry, geo.Country)
	w.Header().Set(headerUserLocale, geo.Locale)
}

// setPageHeaders 附加完整地理头（非 API 页面）。
// 城市和区域仅在平台头提供时附加。
func setPageHeaders(w http.ResponseWriter, geo xgeo.Context) {
	setIdentityHeaders(w, geo)
	w.Header().Set(headerUserCurrency, geo.Currency)
	w.Header().Set(headerUserTimezone, geo.Timezone)
	if geo.City != "" {
		w.Header().Set(headerUserCity, geo.City)
	}
	if geo.Region != "" {
		w.Header().Set(headerUserRegion, geo.Region)
	}
}

// cacheTag 构造可缓存页面的缓存提示标签。
// 标签包含页面、语言环境、国家，区域国家额外附加区域提示。
func cacheTag(p string, geo xgeo.Context) string {
	tags := []string{
		"page:" + p,
		"locale:" + geo.Locale,
		"country:" + geo.Country,
	}
	if geo.IsRegional {
		tags = append(tags, regionalCacheHint)
	}
	return strings.Join(tags, ",")
}
