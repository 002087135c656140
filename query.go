// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

// cellsIntersecting enumerates the minimal set of keys at level whose cell
// genuinely intersects region, by recursive descent from the codec's root,
// pruning any subtree whose CellBounds does not intersect region.
//
// This is the same covering-set problem LITMAX/BIGMIN solves (SPEC_FULL.md
// §4.5, GLOSSARY "LITMAX/BIGMIN"): both produce the minimal set of SFC
// intervals covering a query region without materializing the whole tree.
// Recursive descent reaches the same minimal set by pruning on CellBounds
// instead of walking a literal "current SFC position" with bit-level
// LITMAX/BIGMIN steps; [octree.LitMaxBigMin] additionally implements the
// literal bit-level algorithm the spec names for the Morton-keyed variant;
// nothing in this package calls it.
//
// CellBounds only depends on a key's cube coordinates, never its type, so
// Child(i) is safe to use here purely to find which grid cubes overlap
// region. The type tag of the key Child(i) itself returns is not safe to
// hand out, though: for Tetree's six characteristic tetrahedra and Prism's
// two orientations, Child()'s canonical type-assignment chain can disagree
// with the geometric type Codec.Encode assigns the same cube (DESIGN.md),
// so every surviving cube is re-resolved through Encode at a point in its
// overlap with region, giving back the key residency (a future Insert in
// that area) would actually use.
func cellsIntersecting[K Key[K]](codec Codec[K], region AABB, level int) []K {
	if level > codec.MaxLevel() {
		level = codec.MaxLevel()
	}
	var out []K
	var descend func(k K)
	descend = func(k K) {
		cb := k.CellBounds()
		if !cb.Intersects(region) {
			return
		}
		if k.Level() >= level {
			if k.Level() == level {
				out = append(out, resolveCell(codec, k, region, level))
			}
			return
		}
		for i := 0; i < k.ChildCount(); i++ {
			descend(k.Child(i))
		}
	}
	descend(codec.Root())
	return out
}

// resolveCell re-derives the key Encode would actually assign for a point
// in k's cell's overlap with region, so the key returned by
// cellsIntersecting matches what residency will use rather than a
// Child()-chain type that Encode might never itself produce. Falls back to
// k itself if Encode rejects the sample point.
func resolveCell[K Key[K]](codec Codec[K], k K, region AABB, level int) K {
	mid := k.CellBounds().ClosestPoint(region.Center())
	if rk, err := codec.Encode(mid, level); err == nil {
		return rk
	}
	return k
}

// isUnboundedRegion reports whether aabb effectively covers the whole
// domain, in which case range queries should fall back to a full node-map
// scan rather than paying for cells(Q) enumeration (SPEC_FULL.md §4.5:
// "Unbounded queries... fall back to full scan — this is the k-NN
// unlimited-distance fix and must be preserved").
func isUnboundedRegion(aabb AABB) bool {
	return aabb.Min.X <= 0 && aabb.Min.Y <= 0 && aabb.Min.Z <= 0 &&
		aabb.Max.X >= MaxCoord && aabb.Max.Y >= MaxCoord && aabb.Max.Z >= MaxCoord
}

// EntitiesInRegion returns every entity whose stored point (or, if bounded
// and spanning is enabled, whose bounds) intersects aabb. Spanning entities
// referenced from multiple nodes are deduped by ID (SPEC_FULL.md §4.5).
func (e *Engine[K]) EntitiesInRegion(aabb AABB) ([]EntityID, error) {
	if err := e.lifecycle.checkOperating(); err != nil {
		return nil, err
	}

	seen := make(map[EntityID]struct{})
	var out []EntityID

	visit := func(_ K, n *Node[K]) bool {
		for _, id := range n.Entities() {
			if _, dup := seen[id]; dup {
				continue
			}
			rec, ok := e.entities.load(id)
			if !ok {
				continue
			}
			match := aabb.Contains(rec.point)
			if !match && rec.bounds != nil {
				match = aabb.Intersects(*rec.bounds)
			}
			if match {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return true
	}

	if isUnboundedRegion(aabb) {
		e.nodes.ascend(visit)
		return out, nil
	}

	// entities_in_region has no single "level" input; scan across every
	// resident level whose cells could intersect aabb by visiting all
	// resident nodes directly rather than re-deriving cells(Q) at a
	// fixed level the caller never specified. The cells(Q) machinery
	// (cellsIntersecting) is used instead where a level is known, as in
	// spanning placement.
	e.nodes.ascend(func(k K, n *Node[K]) bool {
		if k.CellBounds().Intersects(aabb) {
			return visit(k, n)
		}
		return true
	})
	return out, nil
}
