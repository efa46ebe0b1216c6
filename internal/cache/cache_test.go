// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(ttl)
	c.SetClock(clock.Now)
	t.Cleanup(c.Close)
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists := c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, 30*time.Second)

	c.Set(KeyAdminStats, 42)
	clock.Advance(29 * time.Second)
	if _, ok := c.Get(KeyAdminStats); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(KeyAdminStats); ok {
		t.Fatal("entry should have expired")
	}

	s := c.GetStats()
	if s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c, clock := newTestCache(t, time.Hour)

	c.SetWithTTL("short", "v", time.Second)
	clock.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("custom TTL not honoured")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	if got := c.GetStats().TotalKeys; got != 1 {
		t.Errorf("TotalKeys = %d, want 1", got)
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("b should be cleared")
	}
	if got := c.GetStats().TotalKeys; got != 0 {
		t.Errorf("TotalKeys = %d, want 0", got)
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Second)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(5 * time.Second)
	c.cleanup()

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("entries after cleanup = %d, want 0", n)
	}
	if got := c.GetStats().Evictions; got != 2 {
		t.Errorf("Evictions = %d, want 2", got)
	}
}

func TestCacheHitRate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	if c.HitRate() != 0 {
		t.Error("empty cache hit rate should be 0")
	}

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate = %v, want 75", got)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			for j := 0; j < 100; j++ {
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New(time.Minute)
	c.Close()
	c.Close()
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("search", map[string]string{"q": "report"})
	b := GenerateKey("search", map[string]string{"q": "report"})
	c := GenerateKey("search", map[string]string{"q": "other"})

	if a != b {
		t.Error("same params should produce the same key")
	}
	if a == c {
		t.Error("different params should produce different keys")
	}
}
