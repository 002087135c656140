// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"container/heap"
	"math"
	"sort"
)

// nodeQueueItem is one entry in the best-first node priority queue:
// resident node keys ordered by their cell's lower-bound distance to the
// query point (SPEC_FULL.md §4.5 "a priority queue of nodes ordered by
// lower-bound distance from point to the node's cell").
type nodeQueueItem[K Key[K]] struct {
	key       K
	lowerBdSq float64
}

type nodeQueue[K Key[K]] []nodeQueueItem[K]

func (q nodeQueue[K]) Len() int            { return len(q) }
func (q nodeQueue[K]) Less(i, j int) bool  { return q[i].lowerBdSq < q[j].lowerBdSq }
func (q nodeQueue[K]) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue[K]) Push(x interface{}) { *q = append(*q, x.(nodeQueueItem[K])) }
func (q *nodeQueue[K]) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// candidateHeap is a k-sized max-heap on distance: the root is always the
// current worst (farthest) candidate, so it can be evicted in O(log k) as
// closer candidates are found.
type candidateHeap []ScoredEntity

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(ScoredEntity)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

const maxKNNExpansions = 3

// KNearest returns up to k entities nearest to point within maxDistance
// (use math.Inf(1) for unlimited), sorted by ascending distance with ties
// broken by ID ordering (SPEC_FULL.md §4.5, §8 scenario 1).
func (e *Engine[K]) KNearest(point Position, k int, maxDistance float64) ([]ScoredEntity, error) {
	if err := e.lifecycle.checkOperating(); err != nil {
		return nil, err
	}
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	version := e.globalVersion.Load()
	cellID := cacheCellID[K](e.codec, point)
	if result, ok := e.knnCache.get(cellID, k, maxDistance, version); ok {
		return result, nil
	}

	radius := maxDistance
	var result []ScoredEntity
	for attempt := 0; attempt <= maxKNNExpansions; attempt++ {
		result = e.knnSearch(point, k, radius)
		if len(result) >= k || radius >= maxDistance || radius >= MaxCoord*2 || math.IsInf(radius, 1) {
			break
		}
		if radius <= 0 {
			radius = 1
		} else {
			radius *= 4
		}
	}

	e.knnCache.put(cellID, k, maxDistance, version, result)
	return result, nil
}

// knnSearch orders the currently resident nodes by lower-bound distance and
// scans them best-first, rather than descending the virtual tree via
// Child(): Child()'s canonical type-assignment chain can disagree with the
// geometric type Codec.Encode assigns to the same grid cube for Tetree's
// six characteristic tetrahedra and Prism's two orientations (DESIGN.md),
// so a key built by descent may simply never match a resident key. Working
// from e.nodes directly — the same approach EntitiesInRegion, RayCast and
// FrustumCull already use — sidesteps that divergence entirely.
func (e *Engine[K]) knnSearch(point Position, k int, maxDistance float64) []ScoredEntity {
	maxDistSq := math.Inf(1)
	if !math.IsInf(maxDistance, 1) {
		maxDistSq = maxDistance * maxDistance
	}

	pq := &nodeQueue[K]{}
	heap.Init(pq)
	e.nodes.ascend(func(key K, n *Node[K]) bool {
		if n.Empty() {
			return true
		}
		lb := key.CellBounds().DistanceSquared(point)
		if lb > maxDistSq {
			return true
		}
		heap.Push(pq, nodeQueueItem[K]{key: key, lowerBdSq: lb})
		return true
	})

	best := &candidateHeap{}
	heap.Init(best)

	seen := make(map[EntityID]struct{})

	for pq.Len() > 0 {
		top := (*pq)[0]
		if best.Len() >= k && top.lowerBdSq > (*best)[0].Distance*(*best)[0].Distance {
			break
		}
		item := heap.Pop(pq).(nodeQueueItem[K])

		n, ok := e.nodes.get(item.key)
		if !ok {
			continue
		}
		for _, id := range n.Entities() {
			if _, dup := seen[id]; dup {
				continue
			}
			rec, ok := e.entities.load(id)
			if !ok {
				continue
			}
			dSq := rec.point.DistanceSquared(point)
			if dSq > maxDistSq {
				continue
			}
			seen[id] = struct{}{}
			d := math.Sqrt(dSq)
			if best.Len() < k {
				heap.Push(best, ScoredEntity{ID: id, Distance: d})
			} else if d < (*best)[0].Distance {
				heap.Pop(best)
				heap.Push(best, ScoredEntity{ID: id, Distance: d})
			}
		}
	}

	out := make([]ScoredEntity, len(*best))
	copy(out, *best)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out
}
