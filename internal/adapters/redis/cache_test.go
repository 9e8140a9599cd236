package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "sightseeing_ms/internal/adapters/redis"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_RoundTrip(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	var got string
	if ok, err := c.Get(ctx, "translation:en:abc", &got); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "translation:en:abc", "Description", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("sightseeing:translation:en:abc") {
		t.Fatalf("expected prefixed key in redis, keys=%v", mr.Keys())
	}
	if ttl := mr.TTL("sightseeing:translation:en:abc"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
	if ok, err := c.Get(ctx, "translation:en:abc", &got); !ok || err != nil || got != "Description" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", got, ok, err)
	}

	if err := c.Del(ctx, "translation:en:abc"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := c.Get(ctx, "translation:en:abc", &got); ok {
		t.Fatalf("expected miss after Del")
	}
}

func TestCache_TTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", 42, 60); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(61 * time.Second)

	var v int
	if ok, _ := c.Get(ctx, "k", &v); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestCache_BackendDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()

	var v string
	if _, err := c.Get(context.Background(), "k", &v); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
