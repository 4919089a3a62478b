package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/antitok/providers/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache() (*Cache, *clock) {
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New()
	c.now = clk.Now
	return c, clk
}

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("expected ErrMiss on empty cache, got %v", err)
	}

	value := []byte("hello")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value[0] = 'j'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("expected stored copy %q, got %q", "hello", got)
	}

	got[0] = 'x'
	if again, _ := c.Get(ctx, "k"); string(again) != "hello" {
		t.Errorf("expected Get to return a copy, got %q", again)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss after delete, got %v", err)
	}
}

func TestCache_TTL(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()

	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("b"), 0)

	clk.Advance(59 * time.Second)
	if _, err := c.Get(ctx, "short"); err != nil {
		t.Errorf("expected entry before expiry, got %v", err)
	}

	clk.Advance(time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss at expiry, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected expired entry dropped on read, got %d entries", c.Len())
	}
	if _, err := c.Get(ctx, "forever"); err != nil {
		t.Errorf("expected non-expiring entry, got %v", err)
	}
}

func TestCache_Sweep(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache()

	_ = c.Set(ctx, "a", []byte("1"), time.Second)
	_ = c.Set(ctx, "b", []byte("2"), time.Second)
	_ = c.Set(ctx, "c", []byte("3"), time.Hour)

	clk.Advance(2 * time.Second)
	if removed := c.Sweep(); removed != 2 {
		t.Errorf("expected 2 entries swept, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
}

func TestCache_JSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := New()

	type reel struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	want := []reel{{Type: "text", Content: "hi"}}

	if err := cache.SetJSON(ctx, c, "reels", want, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := cache.GetJSON[[]reel](ctx, c, "reels")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := cache.GetJSON[[]reel](ctx, c, "absent"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	_ = c.Set(ctx, "bad", []byte("{"), 0)
	if _, err := cache.GetJSON[[]reel](ctx, c, "bad"); err == nil || errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, key, []byte{byte(j)}, time.Minute)
				_, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() != 16 {
		t.Errorf("expected 16 keys, got %d", c.Len())
	}
}
