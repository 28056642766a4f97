// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"context"
	"sync"
)

// Lazy holds a client handle created on first use and shared afterwards.
//
// Unlike sync.Once, a failed initialization is not cached: the next Get
// retries. Concurrent first calls block on the mutex so the handle is created
// at most once.
type Lazy[T any] struct {
	mu    sync.Mutex
	init  func(ctx context.Context) (T, error)
	value T
	ready bool
}

// NewLazy returns a Lazy that builds its value with init.
func NewLazy[T any](init func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the handle, creating it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return l.value, nil
	}
	v, err := l.init(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	l.value = v
	l.ready = true
	return v, nil
}

// Reset releases the handle with release, if one was created. A later Get
// creates a fresh handle.
func (l *Lazy[T]) Reset(release func(T) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return nil
	}
	v := l.value
	var zero T
	l.value = zero
	l.ready = false
	if release == nil {
		return nil
	}
	return release(v)
}
