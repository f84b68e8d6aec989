package xlimit

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

// failingBackend 始终返回存储错误的后端
type failingBackend struct {
	calls int
}

func (b *failingBackend) Type() string { return "failing" }

func (b *failingBackend) Check(context.Context, string, int, int, time.Duration, int) (CheckResult, error) {
	b.calls++
	return CheckResult{}, syscall.ECONNREFUSED
}

func (b *failingBackend) Reset(context.Context, string) error { return syscall.ECONNREFUSED }

func (b *failingBackend) Query(context.Context, string, int, int, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, syscall.ECONNREFUSED
}

func (b *failingBackend) Close() error { return nil }

func TestBreakerBackend(t *testing.T) {
	ctx := testContext()

	t.Run("opens after consecutive store failures", func(t *testing.T) {
		inner := &failingBackend{}
		b := newBreakerBackend(inner, nil)

		for i := 0; i < breakerConsecutiveFailures; i++ {
			if _, err := b.Check(ctx, "k", 5, 5, time.Minute, 1); err == nil {
				t.Fatalf("check %d: expected error", i)
			}
		}

		callsBeforeOpen := inner.calls

		// 熔断打开后不再触达内层后端
		_, err := b.Check(ctx, "k", 5, 5, time.Minute, 1)
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable from open breaker, got %v", err)
		}
		if inner.calls != callsBeforeOpen {
			t.Fatal("open breaker must short-circuit without calling the store")
		}
	})

	t.Run("open breaker error triggers fallback classification", func(t *testing.T) {
		b := newBreakerBackend(&failingBackend{}, nil)

		for i := 0; i <= breakerConsecutiveFailures; i++ {
			_, err := b.Check(ctx, "k", 5, 5, time.Minute, 1)
			if !IsStoreError(err) {
				t.Fatalf("check %d: breaker errors must classify as store errors, got %v", i, err)
			}
		}
	})

	t.Run("state change callback", func(t *testing.T) {
		var transitions int
		var lastTo gobreaker.State
		b := newBreakerBackend(&failingBackend{}, func(_, to gobreaker.State) {
			transitions++
			lastTo = to
		})

		for i := 0; i < breakerConsecutiveFailures; i++ {
			_, _ = b.Check(ctx, "k", 5, 5, time.Minute, 1)
		}

		if transitions == 0 {
			t.Fatal("expected state change callback")
		}
		if lastTo != gobreaker.StateOpen {
			t.Fatalf("expected transition to open, got %v", lastTo)
		}
	})

	t.Run("quota denial does not trip the breaker", func(t *testing.T) {
		clock := newTestClock()
		local := newTestLocalBackend(clock)
		b := newBreakerBackend(local, nil)

		// 超出配额的请求持续被拒，但这是业务结果而非存储失败
		for i := 0; i < breakerConsecutiveFailures*3; i++ {
			res, err := b.Check(ctx, "k", 1, 1, time.Minute, 1)
			if err != nil {
				t.Fatalf("check %d: %v", i, err)
			}
			if i > 0 && res.Allowed {
				t.Fatalf("check %d should be denied", i)
			}
		}
	})
}
