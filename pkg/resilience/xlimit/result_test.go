package xlimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestResultHeaders(t *testing.T) {
	t.Run("allowed result", func(t *testing.T) {
		r := &Result{
			Allowed:   true,
			Limit:     100,
			Remaining: 42,
			ResetAt:   time.Unix(1800000000, 0),
		}
		h := r.Headers()
		if h["X-RateLimit-Limit"] != "100" {
			t.Fatalf("unexpected limit header: %s", h["X-RateLimit-Limit"])
		}
		if h["X-RateLimit-Remaining"] != "42" {
			t.Fatalf("unexpected remaining header: %s", h["X-RateLimit-Remaining"])
		}
		if h["X-RateLimit-Reset"] != "1800000000" {
			t.Fatalf("unexpected reset header: %s", h["X-RateLimit-Reset"])
		}
		if _, ok := h["Retry-After"]; ok {
			t.Fatal("allowed result must not carry Retry-After")
		}
	})

	t.Run("denied result carries retry after", func(t *testing.T) {
		r := DeniedResult(5, 30*time.Second, "tight", "ip|/api/tight")
		h := r.Headers()
		if h["Retry-After"] != "30" {
			t.Fatalf("expected Retry-After 30, got %s", h["Retry-After"])
		}
		if h["X-RateLimit-Remaining"] != "0" {
			t.Fatalf("denied result should report zero remaining, got %s", h["X-RateLimit-Remaining"])
		}
	})

	t.Run("sub-second retry after rounds up", func(t *testing.T) {
		r := DeniedResult(5, 300*time.Millisecond, "tight", "k")
		if r.Headers()["Retry-After"] != "1" {
			t.Fatalf("expected Retry-After 1, got %s", r.Headers()["Retry-After"])
		}
	})
}

func TestResultRetryAfterSeconds(t *testing.T) {
	cases := []struct {
		name  string
		after time.Duration
		want  int
	}{
		{"positive", 90 * time.Second, 90},
		{"sub-second floors", 900 * time.Millisecond, 0},
		{"negative clamps to zero", -5 * time.Second, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Result{RetryAfter: tc.after}
			if got := r.RetryAfterSeconds(); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestResultSetHeaders(t *testing.T) {
	t.Run("writes headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := AllowedResult(10, 9)
		r.SetHeaders(rec)
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Fatal("expected limit header written")
		}
	})

	t.Run("skips without quota info", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := &Result{Allowed: true, Policy: "fallback-open"}
		r.SetHeaders(rec)
		if rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatal("fallback-open result must not write quota headers")
		}
	})
}
