package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCachePutReplacesWholesale(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if err := c.Put(ctx, "s1", map[string]any{"user_id": "u-1", "email": "a@b.com"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "s1", map[string]any{"user_id": "u-2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, err := c.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry["user_id"] != "u-2" {
		t.Fatalf("user_id=%v, want u-2", entry["user_id"])
	}
	if _, ok := entry["email"]; ok {
		t.Fatal("second Put must replace, not merge: stale email survived")
	}
}

func TestMemoryCacheMissingSession(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	entry, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry for missing session, got %v", entry)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	_ = c.Put(ctx, "s1", map[string]any{"user_id": "u-1"})
	if err := c.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entry, _ := c.Get(ctx, "s1")
	if entry != nil {
		t.Fatalf("expected entry gone after delete, got %v", entry)
	}
}

func TestMemoryCacheCopiesEntries(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	src := map[string]any{"user_id": "u-1"}
	_ = c.Put(ctx, "s1", src)
	src["user_id"] = "mutated"

	entry, _ := c.Get(ctx, "s1")
	if entry["user_id"] != "u-1" {
		t.Fatalf("cache must not alias caller maps: %v", entry["user_id"])
	}
}
