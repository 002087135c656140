// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"math"
	"testing"
)

// TestKNearestTieBreakByID implements the worked example of SPEC_FULL.md §8
// scenario 1: three entities at (100,100,100)/(200,200,200)/(300,300,300),
// queried from (150,150,150) for k=2 with unlimited distance. The first two
// are equidistant (~86.60), so insertion order (ID order) breaks the tie.
func TestKNearestTieBreakByID(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	id1, err := e.Insert(Position{X: 100, Y: 100, Z: 100}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert id1: %v", err)
	}
	id2, err := e.Insert(Position{X: 200, Y: 200, Z: 200}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert id2: %v", err)
	}
	_, err = e.Insert(Position{X: 300, Y: 300, Z: 300}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert id3: %v", err)
	}

	got, err := e.KNearest(Position{X: 150, Y: 150, Z: 150}, 2, math.Inf(1))
	if err != nil {
		t.Fatalf("KNearest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("KNearest returned %d results, want 2", len(got))
	}
	if got[0].ID != id1 || got[1].ID != id2 {
		t.Fatalf("KNearest = [%v %v], want [%v %v]", got[0].ID, got[1].ID, id1, id2)
	}
	wantDist := math.Sqrt(3 * 50 * 50)
	for i, s := range got {
		if math.Abs(s.Distance-wantDist) > 1e-6 {
			t.Fatalf("result %d distance = %v, want %v", i, s.Distance, wantDist)
		}
	}
}

// TestKNearestCacheInvalidation implements SPEC_FULL.md §8 scenario 6: a
// cached k-NN result must not survive a mutation that changes the true
// nearest entity.
func TestKNearestCacheInvalidation(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	query := Position{X: 1000, Y: 1000, Z: 1000}
	far, err := e.Insert(Position{X: 2000, Y: 2000, Z: 2000}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert far: %v", err)
	}

	first, err := e.KNearest(query, 1, math.Inf(1))
	if err != nil {
		t.Fatalf("KNearest (1st): %v", err)
	}
	if len(first) != 1 || first[0].ID != far {
		t.Fatalf("KNearest (1st) = %v, want [%v]", first, far)
	}

	near, err := e.Insert(Position{X: 1000, Y: 1000, Z: 1010}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert near: %v", err)
	}

	second, err := e.KNearest(query, 1, math.Inf(1))
	if err != nil {
		t.Fatalf("KNearest (2nd): %v", err)
	}
	if len(second) != 1 || second[0].ID != near {
		t.Fatalf("KNearest (2nd) = %v, want [%v] (cache not invalidated by insert)", second, near)
	}
}

func TestKNearestRespectsMaxDistance(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	_, err := e.Insert(Position{X: 10000, Y: 10000, Z: 10000}, 10, nil, nil)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := e.KNearest(Position{X: 0, Y: 0, Z: 0}, 5, 10)
	if err != nil {
		t.Fatalf("KNearest: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("KNearest beyond maxDistance = %v, want empty", got)
	}
}

// knnProbePoints exercises a spread of grid cubes, chosen so Tetree's six
// characteristic tetrahedra and Prism's two orientations are both in play.
var knnProbePoints = []Position{
	{X: 30, Y: 20, Z: 10},
	{X: 400000, Y: 400000, Z: 400000},
	{X: 1200000, Y: 1200000, Z: 1200000},
}

// TestKNearestFindsEntitiesAcrossVariants guards against the residency
// divergence between Key.Child's canonical type-assignment chain and
// Codec.Encode's geometric one (DESIGN.md, Query engine §4.5): every
// variant must actually find its own nearest entity, not just Octree,
// whose single type per cube never exposed the bug.
func TestKNearestFindsEntitiesAcrossVariants(t *testing.T) {
	t.Parallel()

	t.Run("octree", func(t *testing.T) {
		t.Parallel()
		checkKNearestFindsAll(t, NewOctree(DefaultOptions()))
	})
	t.Run("tetree", func(t *testing.T) {
		t.Parallel()
		checkKNearestFindsAll(t, NewTetree(DefaultOptions()))
	})
	t.Run("prism", func(t *testing.T) {
		t.Parallel()
		checkKNearestFindsAll(t, NewPrism(DefaultOptions()))
	})
}

type knnEngine interface {
	Insert(Position, int, any, *AABB) (EntityID, error)
	KNearest(Position, int, float64) ([]ScoredEntity, error)
	Shutdown()
}

func checkKNearestFindsAll(t *testing.T, e knnEngine) {
	t.Helper()
	defer e.Shutdown()

	ids := make([]EntityID, len(knnProbePoints))
	for i, p := range knnProbePoints {
		id, err := e.Insert(p, 6, nil, nil)
		if err != nil {
			t.Fatalf("Insert %v: %v", p, err)
		}
		ids[i] = id
	}

	got, err := e.KNearest(knnProbePoints[0], 1, math.Inf(1))
	if err != nil {
		t.Fatalf("KNearest: %v", err)
	}
	if len(got) != 1 || got[0].ID != ids[0] {
		t.Fatalf("KNearest(%v) = %v, want [%v] (its own inserted point)", knnProbePoints[0], got, ids[0])
	}

	all, err := e.KNearest(knnProbePoints[0], len(knnProbePoints), math.Inf(1))
	if err != nil {
		t.Fatalf("KNearest all: %v", err)
	}
	if len(all) != len(knnProbePoints) {
		t.Fatalf("KNearest(k=%d) returned %d results, want %d — an entity was dropped", len(knnProbePoints), len(all), len(knnProbePoints))
	}
}
