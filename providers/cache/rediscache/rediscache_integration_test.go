package rediscache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/antitok/providers/cache"
)

func TestIntegration_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	ctx := context.Background()
	c, err := Dial(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, WithPrefix("antitok-test:"+uuid.NewString()+":"))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v, got %q (%v)", got, err)
	}

	ttl, err := c.client.TTL(ctx, c.key("k")).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected TTL within a minute, got %v (%v)", ttl, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss after delete, got %v", err)
	}
}
