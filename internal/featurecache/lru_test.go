package featurecache

import (
	"context"
	"testing"
	"time"
)

func TestLRU_SetGetDel(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(8, time.Minute)

	if err := c.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.MGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("MGet returned %d entries, want 2", len(got))
	}
	if string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Fatalf("wrong values: %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("missing key must be absent, not present with zero value")
	}

	if err := c.Del(ctx, "a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	got, err = c.MGet(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("MGet after Del: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("deleted key still present: %v", got)
	}
}

func TestLRU_EvictsAtCapacity(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2, time.Minute)
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	got, err := c.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("capacity 2 cache holds %d entries", len(got))
	}
	if _, ok := got["a"]; ok {
		t.Fatalf("oldest entry should have been evicted")
	}
}

func TestLRU_ZeroSizeFallsBack(t *testing.T) {
	c := NewLRU(0, time.Minute)
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set on default-sized cache: %v", err)
	}
	got, _ := c.MGet(ctx, []string{"k"})
	if string(got["k"]) != "v" {
		t.Fatalf("value lost: %v", got)
	}
}
