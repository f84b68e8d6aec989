package xlimit

import (
	"net/http/httptest"
	"testing"
)

func TestHTTPKeyExtractor(t *testing.T) {
	extractor := DefaultHTTPKeyExtractor()

	t.Run("forwarded-for first entry wins", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/listings", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1, 10.0.0.2")
		req.Header.Set("X-Real-IP", "198.51.100.9")

		key := extractor.Extract(req)
		if key.IP != "203.0.113.5" {
			t.Fatalf("expected 203.0.113.5, got %s", key.IP)
		}
		if key.Path != "/api/listings" {
			t.Fatalf("expected /api/listings, got %s", key.Path)
		}
	})

	t.Run("real-ip when no forwarded-for", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/listings", nil)
		req.Header.Set("X-Real-IP", "198.51.100.9")

		key := extractor.Extract(req)
		if key.IP != "198.51.100.9" {
			t.Fatalf("expected 198.51.100.9, got %s", key.IP)
		}
	})

	t.Run("platform header as third choice", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/listings", nil)
		req.Header.Set("X-Vercel-Forwarded-For", "192.0.2.44, 10.0.0.1")

		key := extractor.Extract(req)
		if key.IP != "192.0.2.44" {
			t.Fatalf("expected 192.0.2.44, got %s", key.IP)
		}
	})

	t.Run("loopback placeholder when no headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/listings", nil)

		key := extractor.Extract(req)
		if key.IP != "127.0.0.1" {
			t.Fatalf("expected loopback placeholder, got %s", key.IP)
		}
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/listings", nil)
		req.Header.Set("X-Forwarded-For", "  203.0.113.5 , 10.0.0.1")

		key := extractor.Extract(req)
		if key.IP != "203.0.113.5" {
			t.Fatalf("expected trimmed IP, got %q", key.IP)
		}
	})

	t.Run("nil request yields empty key", func(t *testing.T) {
		key := extractor.Extract(nil)
		if !key.IsEmpty() {
			t.Fatalf("expected empty key, got %v", key)
		}
	})
}

func TestHTTPKeyExtractorCustomHeaders(t *testing.T) {
	extractor := NewHTTPKeyExtractor(
		WithForwardedForHeader("CF-Connecting-IP"),
	)

	req := httptest.NewRequest("GET", "/api/leads", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.80")

	key := extractor.Extract(req)
	if key.IP != "203.0.113.80" {
		t.Fatalf("expected custom header IP, got %s", key.IP)
	}
}

func TestKeyRender(t *testing.T) {
	key := Key{IP: "203.0.113.5", Path: "/api/listings/42"}

	t.Run("render uses pattern not raw path", func(t *testing.T) {
		got := key.Render("/api/listings")
		want := "203.0.113.5|/api/listings"
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("string form for logs", func(t *testing.T) {
		s := key.String()
		if s == "" {
			t.Fatal("expected non-empty string form")
		}
	})
}
