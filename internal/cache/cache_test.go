// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}

	c.Delete("key1")
	if _, exists = c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("short", "v", 20*time.Millisecond)
	c.Set("long", "v")

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("Expected short-lived entry to expire")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Expected default TTL entry to survive")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}
}

func TestCacheCleanup(t *testing.T) {
	c := New(10 * time.Millisecond)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(30 * time.Millisecond)
	c.cleanup()

	if got := c.GetStats().TotalKeys; got != 0 {
		t.Errorf("TotalKeys after cleanup = %d, want 0", got)
	}
}

func TestCacheHitRate(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	if c.HitRate() != 0 {
		t.Errorf("HitRate() with no lookups = %v, want 0", c.HitRate())
	}
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")
	c.Get("c")
	if got := c.HitRate(); got != 50 {
		t.Errorf("HitRate() = %v, want 50", got)
	}
}

func TestCacheClearAndClose(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("Expected cache to be empty after Clear")
	}
	c.Close()
	c.Close()
}

func TestCacheConcurrency(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%20)
				c.Set(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if got := c.GetStats().TotalKeys; got != 20 {
		t.Errorf("TotalKeys = %d, want 20", got)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Unit  string `json:"unit"`
		Limit int    `json:"limit"`
	}

	a := GenerateKey("referrers", params{Unit: "events_a", Limit: 10})
	b := GenerateKey("referrers", params{Unit: "events_a", Limit: 10})
	if a != b {
		t.Errorf("equal params produced different keys: %s vs %s", a, b)
	}
	if a == GenerateKey("referrers", params{Unit: "events_a", Limit: 11}) {
		t.Error("different params produced the same key")
	}
	if a == GenerateKey("pages", params{Unit: "events_a", Limit: 10}) {
		t.Error("different operations produced the same key")
	}
	if got := GenerateKey("op", make(chan int)); got == "" {
		t.Error("unmarshalable params should fall back to a formatted key")
	}
}

func TestNewCacher(t *testing.T) {
	tests := []struct {
		name string
		cfg  CacheConfig
		want string
	}{
		{"default is ttl", CacheConfig{}, "*cache.Cache"},
		{"ttl", CacheConfig{Type: CacheTypeTTL, TTL: time.Minute}, "*cache.Cache"},
		{"lru", CacheConfig{Type: CacheTypeLRU, Capacity: 4}, "*cache.LRUCache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCacher(tt.cfg)
			defer c.Close()
			if got := fmt.Sprintf("%T", c); got != tt.want {
				t.Errorf("NewCacher() = %s, want %s", got, tt.want)
			}
		})
	}
}
