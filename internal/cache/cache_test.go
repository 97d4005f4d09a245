package cache

import (
	"testing"
	"time"
)

func TestTTL_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get = %d/%v, want 1/true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("missing key should miss")
	}
}

func TestTTL_Expiry(t *testing.T) {
	c := New[string, int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestTTL_ZeroTTLDisables(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("zero ttl must never hit")
	}
	if c.Len() != 0 {
		t.Fatalf("zero ttl must not store, len=%d", c.Len())
	}
}

func TestTTL_Overwrite(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("overwrite: got %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}
