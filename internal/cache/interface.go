// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package cache provides the in-memory result caches used to memoize
// analytics results for settled time windows.
package cache

import "time"

// Cacher is implemented by every cache in this package.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	GetStats() Stats
	HitRate() float64
	Close()
}

// CacheType selects a cache implementation.
type CacheType string

const (
	// CacheTypeTTL is an unbounded cache swept by expiration (default).
	CacheTypeTTL CacheType = "ttl"

	// CacheTypeLRU is bounded by entry count; least recently used entries go first.
	CacheTypeLRU CacheType = "lru"
)

// CacheConfig holds configuration for creating a cache.
type CacheConfig struct {
	Type CacheType
	TTL  time.Duration

	// Capacity bounds the LRU cache. Ignored for TTL.
	Capacity int
}

// NewCacher creates a cache from cfg.
func NewCacher(cfg CacheConfig) Cacher {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	switch cfg.Type {
	case CacheTypeLRU:
		return NewLRUCache(cfg.Capacity, cfg.TTL)
	default:
		return New(cfg.TTL)
	}
}

var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*LRUCache)(nil)
)
