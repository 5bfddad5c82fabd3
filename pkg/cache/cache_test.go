package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Email string `json:"email"`
	City  string `json:"city"`
}

func TestSetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := New(rdb, time.Minute)
	ctx := context.Background()
	key := UserKey(uuid.New())

	var got payload
	if err := c.Get(ctx, key, &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := c.Set(ctx, key, payload{Email: "a@x.io", City: "Paris"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Get(ctx, key, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.City != "Paris" {
		t.Fatalf("expected cached city, got %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if err := c.Get(ctx, key, &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}

	_ = c.Set(ctx, key, payload{Email: "a@x.io"})
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Get(ctx, key, &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", payload{}); err != nil {
		t.Fatalf("set on disabled cache: %v", err)
	}
	var got payload
	if err := c.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}
