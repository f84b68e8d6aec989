package xgeo

// =============================================================================
// 常量定义
// =============================================================================

const (
	// CountryDefault 平台地理头缺失时的国家哨兵值
	CountryDefault = "DEFAULT"

	// LocaleArabic 阿拉伯语语言环境
	LocaleArabic = "ar"

	// LocaleEnglish 英语语言环境
	LocaleEnglish = "en"

	// LocaleCookieName 语言环境持久化 Cookie 名称
	LocaleCookieName = "locale"

	// LocaleCookieMaxAge Cookie 有效期（一年，秒）
	LocaleCookieMaxAge = 365 * 24 * 60 * 60
)

// 平台地理头（Vercel 风格默认值，可通过 Resolver 选项覆盖）
const (
	headerCountry = "X-Vercel-IP-Country"
	headerCity    = "X-Vercel-IP-City"
	headerRegion  = "X-Vercel-IP-Country-Region"
)

// 回退值（未知国家）
const (
	fallbackCurrency = "USD"
	fallbackTimezone = "UTC"
)

// =============================================================================
// 地理上下文
// =============================================================================

// Context 单个请求的地理/语言环境上下文。
// 每个请求从头部重新计算，不在服务端持久化。
type Context struct {
	// Country ISO 3166-1 国家码，地理头缺失时为 "DEFAULT"
	Country string

	// City 城市（平台头透传，可能为空）
	City string

	// Region 国家内区域码（平台头透传，可能为空）
	Region string

	// Locale 解析后的语言环境，始终属于支持集合 {ar, en}
	Locale string

	// Currency 按国家映射的货币码
	Currency string

	// Timezone 按国家映射的 IANA 时区
	Timezone string

	// IsRegional 国家是否属于区域集合（仅用于缓存提示）
	IsRegional bool
}

// =============================================================================
// 国家映射表
// =============================================================================

// supportedLocales 支持的语言环境集合。
// 解析结果永远不会超出此集合。
var supportedLocales = map[string]bool{
	LocaleArabic:  true,
	LocaleEnglish: true,
}

// regionalCountries 区域国家集合（海湾合作委员会成员国）。
// 成员测试仅影响缓存提示，不影响限流行为。
var regionalCountries = map[string]bool{
	"SA": true,
	"AE": true,
	"KW": true,
	"QA": true,
	"BH": true,
	"OM": true,
}

// countryLocales 国家默认语言环境。未列出的国家默认英语。
var countryLocales = map[string]string{
	"SA": LocaleArabic,
	"AE": LocaleArabic,
	"KW": LocaleArabic,
	"QA": LocaleArabic,
	"BH": LocaleArabic,
	"OM": LocaleArabic,
}

// countryCurrencies 国家货币映射。未列出的国家回退 USD。
var countryCurrencies = map[string]string{
	"SA": "SAR",
	"AE": "AED",
	"KW": "KWD",
	"QA": "QAR",
	"BH": "BHD",
	"OM": "OMR",
}

// countryTimezones 国家时区映射。未列出的国家回退 UTC。
var countryTimezones = map[string]string{
	"SA": "Asia/Riyadh",
	"AE": "Asia/Dubai",
	"KW": "Asia/Kuwait",
	"QA": "Asia/Qatar",
	"BH": "Asia/Bahrain",
	"OM": "Asia/Muscat",
}

// IsSupportedLocale 判断语言环境是否属于支持集合。
func IsSupportedLocale(locale string) bool {
	return supportedLocales[locale]
}

// defaultLocaleFor 返回国家的默认语言环境。
func defaultLocaleFor(country string) string {
	if locale, ok := countryLocales[country]; ok {
		return locale
	}
	return LocaleEnglish
}

// currencyFor 返回国家的货币码。
func currencyFor(country string) string {
	if currency, ok := countryCurrencies[country]; ok {
		return currency
	}
	return fallbackCurrency
}

// timezoneFor 返回国家的 IANA 时区。
func timezoneFor(country string) string {
	if tz, ok := countryTimezones[country]; ok {
		return tz
	}
	return fallbackTimezone
}
