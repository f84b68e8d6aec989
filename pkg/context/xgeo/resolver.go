package xgeo

import (
	"net/http"
	"strings"
)

// =============================================================================
// 解析器
// =============================================================================

// Resolver 请求地理/语言环境解析器。
// 并发安全：构造完成后为只读，可在多个 goroutine 间共享。
type Resolver struct {
	countryHeader string
	cityHeader    string
	regionHeader  string
	cookieName    string
}

// Option 解析器配置选项
type Option func(*Resolver)

// WithCountryHeader 自定义国家地理头名称。
func WithCountryHeader(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.countryHeader = name
		}
	}
}

// WithCityHeader 自定义城市地理头名称。
func WithCityHeader(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.cityHeader = name
		}
	}
}

// WithRegionHeader 自定义区域地理头名称。
func WithRegionHeader(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.regionHeader = name
		}
	}
}

// WithCookieName 自定义语言环境 Cookie 名称。
func WithCookieName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.cookieName = name
		}
	}
}

// NewResolver 创建解析器，默认读取 Vercel 风格地理头。
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		countryHeader: headerCountry,
		cityHeader:    headerCity,
		regionHeader:  headerRegion,
		cookieName:    LocaleCookieName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 从请求头推导地理上下文。永不失败。
//
// 语言环境解析优先级：
//  1. 语言环境 Cookie（值属于支持集合时）
//  2. Accept-Language 质量值最高的受支持主子标签
//  3. 国家默认语言环境
func (r *Resolver) Resolve(req *http.Request) Context {
	country := strings.ToUpper(strings.TrimSpace(req.Header.Get(r.countryHeader)))
	if country == "" {
		country = CountryDefault
	}

	return Context{
		Country:    country,
		City:       strings.TrimSpace(req.Header.Get(r.cityHeader)),
		Region:     strings.TrimSpace(req.Header.Get(r.regionHeader)),
		Locale:     r.resolveLocale(req, country),
		Currency:   currencyFor(country),
		Timezone:   timezoneFor(country),
		IsRegional: regionalCountries[country],
	}
}

// HasLocaleCookie 判断请求是否已携带有效的语言环境 Cookie。
func (r *Resolver) HasLocaleCookie(req *http.Request) bool {
	cookie, err := req.Cookie(r.cookieName)
	return err == nil && IsSupportedLocale(cookie.Value)
}

// LocaleCookie 构造语言环境持久化 Cookie（一年有效期）。
func (r *Resolver) LocaleCookie(locale string) *http.Cookie {
	return &http.Cookie{
		Name:     r.cookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   LocaleCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

// resolveLocale 按优先级解析语言环境。
func (r *Resolver) resolveLocale(req *http.Request, country string) string {
	if cookie, err := req.Cookie(r.cookieName); err == nil {
		if IsSupportedLocale(cookie.Value) {
			return cookie.Value
		}
	}

	if locale := localeFromAcceptLanguage(req.Header.Get("Accept-Language")); locale != "" {
		return locale
	}

	return defaultLocaleFor(country)
}
