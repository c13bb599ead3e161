package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("overwrite failed: %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry should survive")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should miss")
	}

	c.Set("b", 2)
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired removed fresh entries: %d", n)
	}
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
}

func TestLRUCacheClear(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("2024", 1)
	c.Set("2025", 2)
	c.Clear()

	if c.Size() != 0 {
		t.Fatalf("Size() after Clear = %d", c.Size())
	}
	if _, ok := c.Get("2024"); ok {
		t.Fatal("cleared entry still readable")
	}

	// Cache stays usable after Clear.
	c.Set("2026", 3)
	if v, ok := c.Get("2026"); !ok || v != 3 {
		t.Fatalf("Get after Clear = %d, %v", v, ok)
	}
}
