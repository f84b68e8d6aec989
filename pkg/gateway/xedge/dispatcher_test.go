package xedge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/edgegate/pkg/resilience/xlimit"
)

// newTestDispatcher 构造本地限流的测试调度器。
// 默认策略每分钟 2 个请求，便于触发拒绝。
func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()

	limiter, err := xlimit.NewLocal(
		xlimit.WithPolicies(
			xlimit.Policy{Name: "strict", Pattern: "/api/strict", Limit: 1, Window: time.Minute},
			xlimit.Policy{Name: "default", Pattern: "*", Limit: 2, Window: time.Minute},
		),
		xlimit.WithMetrics(false),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = limiter.Close(context.Background())
	})

	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "reached")
		w.WriteHeader(http.StatusOK)
	})

	return NewDispatcher(limiter, upstream, opts...)
}

func doRequest(d *Dispatcher, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:12345"
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, req)
	return rec
}

func TestDispatchStaticAssets(t *testing.T) {
	d := newTestDispatcher(t)

	paths := []string{
		"/_next/static/chunks/main.js",
		"/static/logo.svg",
		"/assets/hero.webp",
		"/favicon.ico",
		"/images/photo.png",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			rec := doRequest(d, p, nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "reached", rec.Header().Get("X-Upstream"))
			// 静态资源不触发限流和地理解析
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
			assert.Empty(t, rec.Header().Get("X-User-Country"))
		})
	}
}

func TestDispatchPages(t *testing.T) {
	t.Run("地理头附加", func(t *testing.T) {
		d := newTestDispatcher(t)
		rec := doRequest(d, "/listings", map[string]string{
			"X-Vercel-IP-Country": "SA",
			"X-Vercel-IP-City":    "Jeddah",
		})
		assert.Equal(t, "SA", rec.Header().Get("X-User-Country"))
		assert.Equal(t, "ar", rec.Header().Get("X-User-Locale"))
		assert.Equal(t, "SAR", rec.Header().Get("X-User-Currency"))
		assert.Equal(t, "Asia/Riyadh", rec.Header().Get("X-User-Timezone"))
		assert.Equal(t, "Jeddah", rec.Header().Get("X-User-City"))
		// 页面不受限流约束
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("Cookie缺失时设置", func(t *testing.T) {
		d := newTestDispatcher(t)
		rec := doRequest(d, "/listings", map[string]string{
			"X-Vercel-IP-Country": "SA",
		})
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "locale", cookies[0].Name)
		assert.Equal(t, "ar", cookies[0].Value)
	})

	t.Run("Cookie已存在时不重复设置", func(t *testing.T) {
		d := newTestDispatcher(t)
		req := httptest.NewRequest(http.MethodGet, "/listings", nil)
		req.AddCookie(&http.Cookie{Name: "locale", Value: "en"})
		rec := httptest.NewRecorder()
		d.ServeHTTP(rec, req)
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, "en", rec.Header().Get("X-User-Locale"))
	})

	t.Run("可缓存页面附加缓存标签", func(t *testing.T) {
		d := newTestDispatcher(t)
		rec := doRequest(d, "/listings", map[string]string{
			"X-Vercel-IP-Country": "AE",
		})
		tag := rec.Header().Get("X-Edge-Cache-Tag")
		assert.Contains(t, tag, "page:/listings")
		assert.Contains(t, tag, "locale:ar")
		assert.Contains(t, tag, "country:AE")
		assert.Contains(t, tag, "region:gcc")
	})

	t.Run("非白名单页面无缓存标签", func(t *testing.T) {
		d := newTestDispatcher(t)
		rec := doRequest(d, "/profile/settings", nil)
		assert.Empty(t, rec.Header().Get("X-Edge-Cache-Tag"))
	})
}

func TestDispatchExemptRoutes(t *testing.T) {
	d := newTestDispatcher(t)

	t.Run("定时任务回调豁免", func(t *testing.T) {
		rec := doRequest(d, "/api/cron/cleanup", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("认证回调豁免", func(t *testing.T) {
		rec := doRequest(d, "/api/auth/session", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("注册路由不豁免", func(t *testing.T) {
		rec := doRequest(d, "/api/auth/register", nil)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("验证码路由不豁免", func(t *testing.T) {
		rec := doRequest(d, "/api/auth/otp/send", nil)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	})
}

func TestDispatchAPI(t *testing.T) {
	t.Run("放行附加配额与身份头", func(t *testing.T) {
		d := newTestDispatcher(t)
		rec := doRequest(d, "/api/listings", map[string]string{
			"X-Vercel-IP-Country": "SA",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "SA", rec.Header().Get("X-User-Country"))
		assert.Equal(t, "ar", rec.Header().Get("X-User-Locale"))
		assert.Equal(t, "reached", rec.Header().Get("X-Upstream"))
	})

	t.Run("超限返回429", func(t *testing.T) {
		d := newTestDispatcher(t)

		rec := doRequest(d, "/api/strict", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(d, "/api/strict", nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

		var body rejectionBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limited", body.Error)
		assert.NotEmpty(t, body.Message)
		assert.GreaterOrEqual(t, body.RetryAfter, 1)
		// 429 不转发上游
		assert.Empty(t, rec.Header().Get("X-Upstream"))
	})

	t.Run("不同客户端配额隔离", func(t *testing.T) {
		d := newTestDispatcher(t)

		rec := doRequest(d, "/api/strict", map[string]string{"X-Real-IP": "198.51.100.1"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(d, "/api/strict", map[string]string{"X-Real-IP": "198.51.100.2"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	})

	limiter, err := xlimit.NewLocal(xlimit.WithMetrics(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close(context.Background()) })

	d := NewDispatcher(limiter, upstream)

	t.Run("缺失时注入", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
		d.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEmpty(t, seen)
	})

	t.Run("已有时保留", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
		req.Header.Set("X-Request-ID", "req-123")
		d.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "req-123", seen)
	})
}
