// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

// FrustumCull returns every entity whose cell and position lie at least
// partially within f, pruning whole subtrees whose cell the frustum
// entirely excludes (SPEC_FULL.md §4.7).
func (e *Engine[K]) FrustumCull(f Frustum) ([]EntityID, error) {
	if err := e.lifecycle.checkOperating(); err != nil {
		return nil, err
	}
	seen := make(map[EntityID]struct{})
	var out []EntityID
	e.nodes.ascend(func(k K, n *Node[K]) bool {
		if n.Empty() || !f.IntersectsAABB(k.CellBounds()) {
			return true
		}
		for _, id := range n.Entities() {
			if _, dup := seen[id]; dup {
				continue
			}
			rec, ok := e.entities.load(id)
			if !ok {
				continue
			}
			box := rec.bounds
			if box == nil {
				box = &AABB{Min: rec.point, Max: rec.point}
			}
			if f.IntersectsAABB(*box) {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return true
	})
	return out, nil
}

// PlaneQuery returns every entity whose cell and bounds cross pl, i.e. lie
// on neither side entirely (SPEC_FULL.md §4.7 "plane query").
func (e *Engine[K]) PlaneQuery(pl Plane) ([]EntityID, error) {
	if err := e.lifecycle.checkOperating(); err != nil {
		return nil, err
	}
	seen := make(map[EntityID]struct{})
	var out []EntityID
	e.nodes.ascend(func(k K, n *Node[K]) bool {
		if n.Empty() || !pl.IntersectsAABB(k.CellBounds()) {
			return true
		}
		for _, id := range n.Entities() {
			if _, dup := seen[id]; dup {
				continue
			}
			rec, ok := e.entities.load(id)
			if !ok {
				continue
			}
			box := rec.bounds
			if box == nil {
				box = &AABB{Min: rec.point, Max: rec.point}
			}
			if pl.IntersectsAABB(*box) {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
		return true
	})
	return out, nil
}
