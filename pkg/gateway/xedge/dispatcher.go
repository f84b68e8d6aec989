package xedge

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/omeyang/edgegate/pkg/context/xgeo"
	"github.com/omeyang/edgegate/pkg/observability/xlog"
	"github.com/omeyang/edgegate/pkg/resilience/xlimit"
)

// =============================================================================
// 调度器
// =============================================================================

// Dispatcher 边缘请求调度器。
// 实现 http.Handler，按路由类别决定限流、地理解析与转发行为。
// 并发安全：构造完成后为只读。
type Dispatcher struct {
	next      http.Handler
	limiter   xlimit.Limiter
	extractor *xlimit.HTTPKeyExtractor
	geo       *xgeo.Resolver
	logger    xlog.Logger
}

// Option 调度器配置选项
type Option func(*Dispatcher)

// WithLogger 设置日志记录器。默认不输出日志。
func WithLogger(logger xlog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithKeyExtractor 设置客户端标识提取器。默认使用标准头链。
func WithKeyExtractor(extractor *xlimit.HTTPKeyExtractor) Option {
	return func(d *Dispatcher) {
		if extractor != nil {
			d.extractor = extractor
		}
	}
}

// WithGeoResolver 设置地理/语言环境解析器。默认使用平台头默认值。
func WithGeoResolver(resolver *xgeo.Resolver) Option {
	return func(d *Dispatcher) {
		if resolver != nil {
			d.geo = resolver
		}
	}
}

// NewDispatcher 创建调度器。
// limiter 为限流决策引擎，next 为放行后的转发处理器（通常是反向代理）。
func NewDispatcher(limiter xlimit.Limiter, next http.Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		next:      next,
		limiter:   limiter,
		extractor: xlimit.DefaultHTTPKeyExtractor(),
		geo:       xgeo.NewResolver(),
		logger:    xlog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ServeHTTP 按路由类别调度请求。
//
// 处理顺序：
//  1. 静态资源：直接透传，不做任何解析
//  2. 非 API 页面：附加地理头、缓存提示与语言环境 Cookie 后透传
//  3. 豁免 API 路由：直接透传
//  4. 其他 API 路由：限流决策，拒绝返回 429，放行附加配额头后转发
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isStaticAsset(r.URL.Path) {
		d.next.ServeHTTP(w, r)
		return
	}

	d.ensureRequestID(r)

	if !isAPIRoute(r.URL.Path) {
		d.servePage(w, r)
		return
	}

	if isExemptAPIRoute(r.URL.Path) {
		d.next.ServeHTTP(w, r)
		return
	}

	d.serveAPI(w, r)
}

// servePage 处理非 API 页面：地理头 + 缓存提示 + Cookie 持久化。
func (d *Dispatcher) servePage(w http.ResponseWriter, r *http.Request) {
	geo := d.geo.Resolve(r)
	setPageHeaders(w, geo)

	if !d.geo.HasLocaleCookie(r) {
		http.SetCookie(w, d.geo.LocaleCookie(geo.Locale))
	}

	if isCacheablePage(r.URL.Path) {
		w.Header().Set(headerCacheTag, cacheTag(r.URL.Path, geo))
	}

	d.next.ServeHTTP(w, r)
}

// serveAPI 处理需要限流的 API 路由。
func (d *Dispatcher) serveAPI(w http.ResponseWriter, r *http.Request) {
	key := d.extractor.Extract(r)
	result, err := d.limiter.Allow(r.Context(), key)

	if err != nil && result == nil {
		// 限流器内部故障对客户端不可见，记录后放行
		d.logger.Warn(r.Context(), "limiter unavailable, admitting request",
			xlog.Err(err),
			xlog.Path(r.URL.Path),
			xlog.RequestID(r.Header.Get(headerRequestID)),
		)
		d.next.ServeHTTP(w, r)
		return
	}

	if !result.Allowed {
		d.logger.Info(r.Context(), "request rejected by rate limit",
			xlog.Path(r.URL.Path),
			slog.String("policy", result.Policy),
			slog.String("key", result.Key),
			xlog.RequestID(r.Header.Get(headerRequestID)),
		)
		writeRejection(w, result)
		return
	}

	result.SetHeaders(w)
	setIdentityHeaders(w, d.geo.Resolve(r))
	d.next.ServeHTTP(w, r)
}

// ensureRequestID 为缺失请求 ID 的请求注入新的 UUID。
func (d *Dispatcher) ensureRequestID(r *http.Request) {
	if r.Header.Get(headerRequestID) == "" {
		r.Header.Set(headerRequestID, uuid.NewString())
	}
}

// 确保 Dispatcher 实现了 http.Handler
var _ http.Handler = (*Dispatcher)(nil)
