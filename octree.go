// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import "github.com/lucien3d/lucien/octree"

// NewOctree constructs a Morton-keyed Octree engine (SPEC_FULL.md §4.1
// "Octree: Morton/Z-order").
func NewOctree(opts Options) *Engine[octree.Key] {
	return newEngine[octree.Key](Octree, octree.NewCodec(), octree.NewNeighborFinder(), opts)
}
