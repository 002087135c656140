// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"testing"

	"github.com/lucien3d/lucien/octree"
)

func TestTraverseVisitsEveryEntity(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	const n = 40
	want := make(map[EntityID]struct{}, n)
	for i := 0; i < n; i++ {
		p := Position{X: float64(i * 1000), Y: float64(i * 500), Z: float64(i * 250)}
		id, err := e.Insert(p, 12, nil, nil)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		want[id] = struct{}{}
	}

	for _, strategy := range []TraversalStrategy{
		TraverseDFSPreOrder, TraverseDFSPostOrder, TraverseBFS, TraverseSFCOrder, TraverseLevelOrder,
	} {
		seen := make(map[EntityID]struct{}, n)
		e.Traverse(Visitor[octree.Key]{
			OnEntity: func(_ octree.Key, id EntityID) TraversalAction {
				seen[id] = struct{}{}
				return ActionContinue
			},
		}, strategy)
		if len(seen) != len(want) {
			t.Fatalf("strategy %d: visited %d entities, want %d", strategy, len(seen), len(want))
		}
	}
}

func TestTraverseStopHaltsEarly(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	for i := 0; i < 20; i++ {
		p := Position{X: float64(i * 1000), Y: float64(i * 500), Z: float64(i * 250)}
		if _, err := e.Insert(p, 12, nil, nil); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	visited := 0
	e.Traverse(Visitor[octree.Key]{
		OnEntity: func(_ octree.Key, id EntityID) TraversalAction {
			visited++
			return ActionStop
		},
	}, TraverseSFCOrder)

	if visited != 1 {
		t.Fatalf("visited %d entities after ActionStop, want 1", visited)
	}
}
