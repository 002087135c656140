// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

// Package entityset implements the per-node "small-set collection with O(1)
// membership" SPEC_FULL.md §3 calls for, backed by a compressed 64-bit
// roaring bitmap so it works uniformly for both sequential and UUID-derived
// entity IDs.
package entityset

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Set is a concurrency-safe set of entity IDs, represented internally as a
// roaring64 bitmap. The zero value is ready to use.
type Set struct {
	mu sync.RWMutex
	bm *roaring64.Bitmap
}

// New returns an empty, ready-to-use Set.
func New() *Set {
	return &Set{bm: roaring64.New()}
}

func (s *Set) ensure() *roaring64.Bitmap {
	if s.bm == nil {
		s.bm = roaring64.New()
	}
	return s.bm
}

// Add inserts id, reporting whether it was newly added.
func (s *Set) Add(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure().CheckedAdd(id)
}

// Remove deletes id, reporting whether it was present.
func (s *Set) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure().CheckedRemove(id)
}

// Contains reports whether id is a member.
func (s *Set) Contains(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bm != nil && s.bm.Contains(id)
}

// Len returns the number of members.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool { return s.Len() == 0 }

// ForEach calls fn for every member in ascending order, stopping early if
// fn returns false.
func (s *Set) ForEach(fn func(id uint64) bool) {
	s.mu.RLock()
	if s.bm == nil {
		s.mu.RUnlock()
		return
	}
	bm := s.bm.Clone()
	s.mu.RUnlock()
	it := bm.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

// ToSlice returns all members in ascending order.
func (s *Set) ToSlice() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bm == nil {
		return nil
	}
	return s.bm.ToArray()
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bm == nil {
		return New()
	}
	return &Set{bm: s.bm.Clone()}
}
