package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestAllowWindow(t *testing.T) {
	limiter, mr := newLimiter(t)
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "register", "10.0.0.1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first call allowed, got %v %v", ok, err)
	}

	ok, err = limiter.Allow(ctx, "register", "10.0.0.1", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second call blocked, got %v %v", ok, err)
	}

	ok, _ = limiter.Allow(ctx, "register", "10.0.0.2", time.Minute)
	if !ok {
		t.Fatalf("expected other subject allowed")
	}

	ttl, err := limiter.RetryAfter(ctx, "register", "10.0.0.1")
	if err != nil || ttl <= 0 {
		t.Fatalf("expected positive retry after, got %v %v", ttl, err)
	}

	mr.FastForward(2 * time.Minute)
	ok, _ = limiter.Allow(ctx, "register", "10.0.0.1", time.Minute)
	if !ok {
		t.Fatalf("expected window to expire")
	}
}

func TestClear(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "reset", "a@x.io", time.Hour)
	if err := limiter.Clear(ctx, "reset", "a@x.io"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if ok, _ := limiter.Allow(ctx, "reset", "a@x.io", time.Hour); !ok {
		t.Fatalf("expected allowed after clear")
	}
}

func TestNilClientDisablesLimiting(t *testing.T) {
	limiter := New(nil)
	for i := 0; i < 3; i++ {
		if ok, err := limiter.Allow(context.Background(), "register", "x", time.Minute); err != nil || !ok {
			t.Fatalf("expected allowed without redis")
		}
	}
}
