// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

// Package cache provides generic, bounded, thread-safe cache handles. The
// engine uses one as its key-for-(point, level) cache; parent-of-key and
// Tetree type-transition results are not cached.
//
// Design note (SPEC_FULL.md §9, "process-global static caches re-architect
// as explicit cache handles owned by the engine"): each engine constructs
// its own [Handle] with [New] when it is built; there is no package-level
// default handle and no state shared between engines.
package cache

import (
	"github.com/dgraph-io/ristretto"
)

// Handle is a generic, bounded, thread-safe cache from K to V, backed by
// ristretto's sampled-LFU admission policy. Every entry costs 1, so
// MaxCost is simply the desired entry capacity.
type Handle[K comparable, V any] struct {
	rc *ristretto.Cache
}

// New constructs a cache handle sized for approximately capacity entries.
// A capacity of zero disables caching: Get always misses and Set is a
// no-op, which lets callers wire a "cache disabled" configuration option
// through the same code path.
func New[K comparable, V any](capacity int64) *Handle[K, V] {
	if capacity <= 0 {
		return &Handle[K, V]{rc: nil}
	}
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		// ristretto.NewCache only fails on invalid config constants
		// above, which New never produces; treat as cache-disabled
		// rather than propagating a construction-time panic into
		// every codec constructor.
		return &Handle[K, V]{rc: nil}
	}
	return &Handle[K, V]{rc: rc}
}

// Get returns the cached value for key, if present.
func (h *Handle[K, V]) Get(key K) (V, bool) {
	var zero V
	if h == nil || h.rc == nil {
		return zero, false
	}
	v, ok := h.rc.Get(key)
	if !ok {
		return zero, false
	}
	val, ok := v.(V)
	return val, ok
}

// Set stores value under key with cost 1.
func (h *Handle[K, V]) Set(key K, value V) {
	if h == nil || h.rc == nil {
		return
	}
	h.rc.Set(key, value, 1)
}

// GetOrCompute returns the cached value for key, computing and storing it
// via fn on a miss. fn may run more than once under concurrent misses for
// the same key; this is acceptable because every computation for a given
// key is idempotent (pure functions of key inputs, per SPEC_FULL.md §4.1:
// "cache keys must include all inputs... cache entries must be invariant
// under eviction").
func (h *Handle[K, V]) GetOrCompute(key K, fn func() V) V {
	if v, ok := h.Get(key); ok {
		return v
	}
	v := fn()
	h.Set(key, v)
	return v
}

// Close releases background goroutines held by the underlying cache.
func (h *Handle[K, V]) Close() {
	if h != nil && h.rc != nil {
		h.rc.Close()
	}
}
