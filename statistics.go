// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

// Statistics is a point-in-time snapshot of engine occupancy, supplemented
// beyond the distilled spec (SPEC_FULL.md §D) because any production index
// needs basic observability without a full profiler attached.
type Statistics struct {
	NodeCount     int
	EntityCount   int
	GhostCount    int
	PerLevel      map[int]LevelStats
	GlobalVersion uint64
}

// LevelStats summarizes occupancy at one subdivision level.
type LevelStats struct {
	NodeCount   int
	EntityTotal int
	MaxPerNode  int
}

// Statistics computes a fresh snapshot by walking the node map once.
func (e *Engine[K]) Statistics() Statistics {
	stats := Statistics{
		PerLevel:      make(map[int]LevelStats),
		GlobalVersion: e.globalVersion.Load(),
		GhostCount:    e.ghosts.Len(),
	}
	for _, entry := range e.nodes.snapshot() {
		lvl := entry.key.Level()
		ls := stats.PerLevel[lvl]
		ls.NodeCount++
		n := entry.node.Len()
		ls.EntityTotal += n
		if n > ls.MaxPerNode {
			ls.MaxPerNode = n
		}
		stats.PerLevel[lvl] = ls
		stats.NodeCount++
	}
	stats.EntityCount = e.entities.count()
	return stats
}

// Validate walks the whole index checking the structural invariants of
// SPEC_FULL.md §7: every entity's recorded node keys are actually resident
// and reference it back, and every resident node's references point at a
// live entity. It is intended for tests and diagnostics, not the hot path.
func (e *Engine[K]) Validate() error {
	for _, entry := range e.nodes.snapshot() {
		for _, id := range entry.node.Entities() {
			rec, ok := e.entities.load(id)
			if !ok {
				return newInternalError("Validate", "node references unknown entity", nil)
			}
			found := false
			for _, kAny := range rec.nodeKeys {
				if k, ok := kAny.(K); ok && k.Compare(entry.key) == 0 {
					found = true
					break
				}
			}
			if !found {
				return newInternalError("Validate", "entity record missing back-reference to resident node", nil)
			}
		}
	}

	var badRef error
	e.entities.rangeAll(func(id EntityID, rec *entityRecord) bool {
		for _, kAny := range rec.nodeKeys {
			k, ok := kAny.(K)
			if !ok {
				continue
			}
			n, ok := e.nodes.get(k)
			if !ok || !n.hasRef(id) {
				badRef = newInternalError("Validate", "entity node-key not resident or missing back-reference", nil)
				return false
			}
		}
		return true
	})
	return badRef
}
