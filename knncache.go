// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ScoredEntity pairs a k-NN result entity with its distance from the query
// point.
type ScoredEntity struct {
	ID       EntityID
	Distance float64
}

type knnCacheKey struct {
	cell   string
	k      int
	bucket int
}

type knnCacheValue struct {
	version uint64
	result  []ScoredEntity
}

// distanceBucket maps maxDistance onto a coarse bucket so that queries with
// near-identical radii share a cache entry (SPEC_FULL.md §4.8: "(...,
// max_distance-bucket)"). Unbounded queries (maxDistance >= MaxCoord,
// including +Inf) get their own sentinel bucket.
func distanceBucket(maxDistance float64) int {
	if maxDistance <= 0 {
		return 0
	}
	if maxDistance >= MaxCoord {
		return -1
	}
	// Logarithmic buckets: coarse at large radii, fine at small ones.
	bucket := 0
	v := maxDistance
	for v > 1 {
		v /= 2
		bucket++
	}
	return bucket
}

// knnCache is the version-keyed bounded LRU of SPEC_FULL.md §4.8, backed by
// hashicorp/golang-lru/v2 (SPEC_FULL.md §B). Thread safety: golang-lru's
// Cache is internally mutex-guarded; the extra RWMutex here is taken around
// each Get/Add as well, matching the spec's "synchronized wrapper around the
// LRU; lookups are short" note.
type knnCache[K Key[K]] struct {
	mu    sync.RWMutex
	inner *lru.Cache[knnCacheKey, knnCacheValue]
}

func newKNNCache[K Key[K]](capacity int) *knnCache[K] {
	if capacity <= 0 {
		capacity = 1
	}
	c, _ := lru.New[knnCacheKey, knnCacheValue](capacity)
	return &knnCache[K]{inner: c}
}

func (c *knnCache[K]) get(cell string, k int, maxDistance float64, currentVersion uint64) ([]ScoredEntity, bool) {
	if c == nil {
		return nil, false
	}
	key := knnCacheKey{cell: cell, k: k, bucket: distanceBucket(maxDistance)}
	c.mu.RLock()
	v, ok := c.inner.Get(key)
	c.mu.RUnlock()
	if !ok || v.version != currentVersion {
		return nil, false
	}
	return v.result, true
}

func (c *knnCache[K]) put(cell string, k int, maxDistance float64, version uint64, result []ScoredEntity) {
	if c == nil {
		return
	}
	key := knnCacheKey{cell: cell, k: k, bucket: distanceBucket(maxDistance)}
	c.mu.Lock()
	c.inner.Add(key, knnCacheValue{version: version, result: result})
	c.mu.Unlock()
}

// cacheCellID computes the spatial-cell-id-of-query component of the cache
// key by encoding the query point at a fixed, coarse bucketing level — not
// necessarily the query's own search level, since k-NN traversal is
// level-agnostic (SPEC_FULL.md §4.5: "k-NN must correctly span multiple
// levels: traversal ignores level, only cell distance matters").
func cacheCellID[K Key[K]](codec Codec[K], p Position) string {
	const cacheLevel = 10
	level := cacheLevel
	if level > codec.MaxLevel() {
		level = codec.MaxLevel()
	}
	k, err := codec.Encode(p, level)
	if err != nil {
		return fmt.Sprintf("invalid:%v:%v:%v", p.X, p.Y, p.Z)
	}
	return k.String()
}
