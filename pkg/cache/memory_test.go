package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q, want v", got)
	}
}

func TestMemoryCacheGetTypedDest(t *testing.T) {
	type board struct {
		Selected string
		Scores   []float64
	}
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	want := board{Selected: "ridge", Scores: []float64{1.2, 3.4}}
	if err := mc.Set(ctx, "b", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got board
	if err := mc.Get(ctx, "b", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Selected != want.Selected || len(got.Scores) != 2 {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	var wrong int
	if err := mc.Get(ctx, "b", &wrong); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	keys := []string{"app:forecast:P1:7", "app:forecast:P2:14", "app:leaderboard", "other"}
	for _, k := range keys {
		if err := mc.Set(ctx, k, "v", time.Minute); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := mc.DeleteByPattern(ctx, "app:forecast:*"); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}

	var s string
	if err := mc.Get(ctx, "app:forecast:P1:7", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("matching key survived: %v", err)
	}
	if err := mc.Get(ctx, "app:forecast:P2:14", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("matching key survived: %v", err)
	}
	// non-matching keys must survive the flush
	if err := mc.Get(ctx, "app:leaderboard", &s); err != nil {
		t.Fatalf("leaderboard key flushed: %v", err)
	}
	if err := mc.Get(ctx, "other", &s); err != nil {
		t.Fatalf("unrelated key flushed: %v", err)
	}
}

func TestMemoryCacheDeleteByPatternExact(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "exact", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mc.Set(ctx, "exactly-not", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := mc.DeleteByPattern(ctx, "exact"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var s string
	if err := mc.Get(ctx, "exact", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("exact key survived: %v", err)
	}
	if err := mc.Get(ctx, "exactly-not", &s); err != nil {
		t.Fatalf("prefix-sharing key removed without wildcard: %v", err)
	}
}
