package xlimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestIsStoreError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("check: %w", context.DeadlineExceeded), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"broken pipe", syscall.EPIPE, true},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"store unavailable sentinel", ErrStoreUnavailable, true},
		{"net op error", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"dns error", &net.DNSError{Err: "no such host", Name: "redis.internal"}, true},
		{"quota denial is not a store error", ErrLimited, false},
		{"invalid policy is not a store error", ErrInvalidPolicy, false},
		{"arbitrary error", errors.New("boom"), false},
		{"context canceled", context.Canceled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsStoreError(tc.err); got != tc.want {
				t.Fatalf("IsStoreError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"timeout", context.DeadlineExceeded, "timeout"},
		{"refused", syscall.ECONNREFUSED, "conn_refused"},
		{"unavailable", ErrStoreUnavailable, "unavailable"},
		{"network", &net.DNSError{Err: "no such host"}, "network"},
		{"other", errors.New("boom"), "other"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyError(tc.err); got != tc.want {
				t.Fatalf("classifyError(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestLimitError(t *testing.T) {
	le := &LimitError{
		Key:        Key{IP: "203.0.113.5", Path: "/api/tight"},
		Policy:     "tight",
		Limit:      5,
		RetryAfter: 30,
	}

	t.Run("matches ErrLimited", func(t *testing.T) {
		if !errors.Is(le, ErrLimited) {
			t.Fatal("LimitError should match ErrLimited")
		}
		if !IsDenied(le) {
			t.Fatal("IsDenied should report true")
		}
	})

	t.Run("message carries context", func(t *testing.T) {
		msg := le.Error()
		if msg == "" {
			t.Fatal("expected non-empty message")
		}
	})

	t.Run("wrapped still matches", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", le)
		if !errors.Is(wrapped, ErrLimited) {
			t.Fatal("wrapped LimitError should match ErrLimited")
		}
	})
}
