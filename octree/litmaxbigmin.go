// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package octree

import "github.com/lucien3d/lucien"

// LitMaxBigMin enumerates the minimal set of level-L keys whose cells
// intersect region, operating directly on integer grid coordinates (not
// float CellBounds) at each step — the literal bit-level covering-set walk
// the LITMAX/BIGMIN algorithm names (SPEC_FULL.md §4.5, GLOSSARY
// "LITMAX/BIGMIN"): recurse from the root octant, and at each level split
// the current integer box into its 8 child octants, pruning any octant
// whose integer range [lo,hi] per axis does not overlap the query's
// quantized [qLo,qHi] range. This is the same minimal set
// [cellsIntersecting] in the root package produces via Key.CellBounds; this
// version is offered as a faster path for Octree specifically, since octant
// bounds here are cheap integer comparisons rather than float AABB
// intersection tests.
func LitMaxBigMin(region lucien.AABB, level int) []Key {
	if level > MaxLevel {
		level = MaxLevel
	}
	qMinX, qMinY, qMinZ := clampQuantize(region.Min)
	qMaxX, qMaxY, qMaxZ := clampQuantize(region.Max)

	var out []Key
	var recurse func(k Key, loX, loY, loZ, hiX, hiY, hiZ uint32)
	recurse = func(k Key, loX, loY, loZ, hiX, hiY, hiZ uint32) {
		if hiX < qMinX || loX > qMaxX || hiY < qMinY || loY > qMaxY || hiZ < qMinZ || loZ > qMaxZ {
			return
		}
		if k.level == level {
			out = append(out, k)
			return
		}
		midX := loX + (hiX-loX)/2
		midY := loY + (hiY-loY)/2
		midZ := loZ + (hiZ-loZ)/2
		for i := 0; i < 8; i++ {
			childLoX, childHiX := loX, midX
			if i&4 != 0 {
				childLoX, childHiX = midX+1, hiX
			}
			childLoY, childHiY := loY, midY
			if i&2 != 0 {
				childLoY, childHiY = midY+1, hiY
			}
			childLoZ, childHiZ := loZ, midZ
			if i&1 != 0 {
				childLoZ, childHiZ = midZ+1, hiZ
			}
			if childLoX > childHiX || childLoY > childHiY || childLoZ > childHiZ {
				continue
			}
			recurse(k.Child(i), childLoX, childLoY, childLoZ, childHiX, childHiY, childHiZ)
		}
	}

	full := uint32(1)<<MaxLevel - 1
	recurse(Root(), 0, 0, 0, full, full, full)
	return out
}

func clampQuantize(p lucien.Position) (x, y, z uint32) {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > lucien.MaxCoord-1 {
			return lucien.MaxCoord - 1
		}
		return v
	}
	cp := lucien.Position{X: clamp(p.X), Y: clamp(p.Y), Z: clamp(p.Z)}
	return cp.Quantize()
}
