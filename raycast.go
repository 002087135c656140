// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"math"
	"sort"
)

// RayHitMode selects how many hits [Engine.RayCast] returns and in what
// order (SPEC_FULL.md §4.6).
type RayHitMode int

const (
	// RayHitFirst returns only the closest hit along the ray.
	RayHitFirst RayHitMode = iota
	// RayHitAll returns every hit, sorted by ascending distance.
	RayHitAll
	// RayHitWithinDistance returns every hit within a caller-supplied
	// distance, sorted by ascending distance.
	RayHitWithinDistance
)

// RayHit is one entity struck by a ray cast.
type RayHit struct {
	ID       EntityID
	Distance float64
	Point    Position
}

// defaultEntityRadius is the sphere radius used to test a ray against an
// entity that carries no explicit bounds.
const defaultEntityRadius = 0.5

// RayCast walks the node map in order of increasing entry distance along
// ray, testing each resident node's entities, and returns hits according to
// mode (SPEC_FULL.md §4.6 "ray casting: walk cells in SFC/ray order, test
// entities per cell, early-exit for `first` mode").
func (e *Engine[K]) RayCast(ray Ray, mode RayHitMode, maxDistance float64) ([]RayHit, error) {
	if err := e.lifecycle.checkOperating(); err != nil {
		return nil, err
	}
	if mode != RayHitWithinDistance {
		maxDistance = math.Inf(1)
	}

	type cellEntry struct {
		key  K
		tMin float64
	}
	var cells []cellEntry
	e.nodes.ascend(func(k K, n *Node[K]) bool {
		if n.Empty() {
			return true
		}
		tMin, tMax, ok := ray.IntersectAABB(k.CellBounds())
		if !ok || tMin > maxDistance {
			return true
		}
		_ = tMax
		cells = append(cells, cellEntry{key: k, tMin: tMin})
		return true
	})
	sort.Slice(cells, func(i, j int) bool { return cells[i].tMin < cells[j].tMin })

	seen := make(map[EntityID]struct{})
	var hits []RayHit
	closest := math.Inf(1)
	for _, c := range cells {
		// Cells are in ascending entry distance, so once a cell starts beyond
		// the closest hit so far, no later cell can hold a closer one.
		if mode == RayHitFirst && c.tMin > closest {
			break
		}
		n, ok := e.nodes.get(c.key)
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
			var t float64
			var hit bool
			if rec.bounds != nil {
				t, _, hit = ray.IntersectAABB(*rec.bounds)
			} else {
				t, hit = ray.IntersectSphere(rec.point, defaultEntityRadius)
			}
			if !hit || t < 0 || t > maxDistance {
				continue
			}
			seen[id] = struct{}{}
			hits = append(hits, RayHit{ID: id, Distance: t, Point: ray.At(t)})
			closest = math.Min(closest, t)
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if mode == RayHitFirst && len(hits) > 1 {
		hits = hits[:1]
	}
	return hits, nil
}
