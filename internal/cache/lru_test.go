package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned ok")
	}

	c.Set("summary:2026-03", "cached page")
	got, ok := c.Get("summary:2026-03")
	if !ok {
		t.Fatal("Get() after Set() returned !ok")
	}
	if got != "cached page" {
		t.Errorf("Get() = %q, want %q", got, "cached page")
	}

	c.Set("summary:2026-03", "updated page")
	got, _ = c.Get("summary:2026-03")
	if got != "updated page" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "updated page")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("k", 42)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned ok for expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expired Get = %d, want 0", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry was evicted")
	}

	stats := c.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Stats().Evictions = %d, want 1", stats.Evictions)
	}
}

func TestLRUCache_Flush(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Flush()

	if c.Size() != 0 {
		t.Errorf("Size() after Flush = %d, want 0", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned ok after Flush")
	}

	// Cache stays usable after a flush
	c.Set("a", "3")
	if got, ok := c.Get("a"); !ok || got != "3" {
		t.Errorf("Get() after Flush+Set = %q, %v, want %q, true", got, ok, "3")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Stats().Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Stats().Misses = %d, want 1", stats.Misses)
	}
}

func TestManager_CleanupAndStop(t *testing.T) {
	c := NewLRUCache[int](10, 5*time.Millisecond)
	c.Set("k", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	m.Stop()

	if c.Size() != 0 {
		t.Errorf("Size() after cleanup = %d, want 0", c.Size())
	}
}
