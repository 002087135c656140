// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import "github.com/lucien3d/lucien/tetree"

// NewTetree constructs a TM-SFC-keyed Tetree engine (SPEC_FULL.md §4.1
// "Tetree: S0-S5 characteristic tetrahedra").
func NewTetree(opts Options) *Engine[tetree.Key] {
	return newEngine[tetree.Key](Tetree, tetree.NewCodec(), tetree.NewNeighborFinder(), opts)
}
