// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"testing"

	"github.com/lucien3d/lucien/octree"
)

func TestBoundaryElementsFindsDomainEdgeNodes(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	if _, err := e.Insert(Position{X: MaxCoord / 2, Y: MaxCoord / 2, Z: MaxCoord / 2}, 10, nil, nil); err != nil {
		t.Fatalf("Insert center: %v", err)
	}
	if _, err := e.Insert(Position{X: 1, Y: 1, Z: 1}, 10, nil, nil); err != nil {
		t.Fatalf("Insert corner: %v", err)
	}

	if e.FaceCount() != 6 {
		t.Fatalf("FaceCount() = %d, want 6", e.FaceCount())
	}

	codec := octree.NewCodec()
	cornerKey, err := codec.Encode(Position{X: 1, Y: 1, Z: 1}, 10)
	if err != nil {
		t.Fatalf("Encode corner: %v", err)
	}
	centerKey, err := codec.Encode(Position{X: MaxCoord / 2, Y: MaxCoord / 2, Z: MaxCoord / 2}, 10)
	if err != nil {
		t.Fatalf("Encode center: %v", err)
	}

	boundary := e.BoundaryElements()
	hasCorner, hasCenter := false, false
	for _, k := range boundary {
		if k.Compare(cornerKey) == 0 {
			hasCorner = true
		}
		if k.Compare(centerKey) == 0 {
			hasCenter = true
		}
	}
	if !hasCorner {
		t.Fatalf("BoundaryElements missing domain-edge node %v", cornerKey)
	}
	if hasCenter {
		t.Fatalf("BoundaryElements unexpectedly included interior node %v", centerKey)
	}
}

func TestFaceNeighborViaEngine(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	codec := octree.NewCodec()
	k, err := codec.Encode(Position{X: MaxCoord / 2, Y: MaxCoord / 2, Z: MaxCoord / 2}, 8)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	n, ok := e.FaceNeighbor(k, octree.FaceMaxX)
	if !ok {
		t.Fatal("FaceNeighbor reported no neighbor for an interior cell")
	}
	if n.Compare(k) == 0 {
		t.Fatal("FaceNeighbor returned the same cell")
	}
}
