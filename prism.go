// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import "github.com/lucien3d/lucien/prism"

// NewPrism constructs a composite triangle x line-keyed Prism engine
// (SPEC_FULL.md §4.1 "Prism: composite key").
func NewPrism(opts Options) *Engine[prism.Key] {
	return newEngine[prism.Key](Prism, prism.NewCodec(), prism.NewNeighborFinder(), opts)
}
