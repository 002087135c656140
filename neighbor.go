// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

// FaceNeighbor returns the same-level neighbor of k across the given face,
// delegating to the variant's installed [NeighborFinder] (SPEC_FULL.md
// §4.9).
func (e *Engine[K]) FaceNeighbor(k K, face int) (K, bool) {
	return e.neighbor.FaceNeighbor(k, face)
}

// MultiLevelNeighbors returns every neighbor of k of the requested kind, at
// any level, resolving non-conforming (hanging-node) adjacency.
func (e *Engine[K]) MultiLevelNeighbors(k K, kind NeighborKind) []NeighborResult[K] {
	return e.neighbor.MultiLevelNeighbors(k, kind)
}

// FaceCount reports how many distinct faces a cell of this engine's variant
// has.
func (e *Engine[K]) FaceCount() int { return e.neighbor.FaceCount() }

// BoundaryElements returns every resident node key with at least one face
// on the domain boundary, i.e. at least one FaceNeighbor call returns false
// (SPEC_FULL.md §4.9 "boundary element enumeration for ghost/forest
// handoff").
func (e *Engine[K]) BoundaryElements() []K {
	var out []K
	faces := e.neighbor.FaceCount()
	e.nodes.ascend(func(k K, n *Node[K]) bool {
		for f := 0; f < faces; f++ {
			if _, ok := e.neighbor.FaceNeighbor(k, f); !ok {
				out = append(out, k)
				break
			}
		}
		return true
	})
	return out
}
