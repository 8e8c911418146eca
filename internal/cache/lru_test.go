package cache

import (
	"testing"
	"time"
)

func TestLRUCache_SetGetDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Delete should miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0", c.Size())
	}
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recently used
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}

	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired = %d, want 1", removed)
	}
}
