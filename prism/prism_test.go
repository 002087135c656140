// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package prism

import (
	"math/rand"
	"testing"

	"github.com/lucien3d/lucien"
)

func TestRootParentChildRoundTrip(t *testing.T) {
	t.Parallel()

	root := Root()
	for i := 0; i < 8; i++ {
		child := root.Child(i)
		parent, ok := child.Parent()
		if !ok {
			t.Fatalf("Child(%d).Parent() reported no parent", i)
		}
		if parent.Compare(root) != 0 {
			t.Fatalf("Child(%d).Parent() = %v, want root", i, parent)
		}
	}
}

func TestChildSynchronizedLevels(t *testing.T) {
	t.Parallel()

	k := Root()
	for d := 0; d < 5; d++ {
		k = k.Child(d % 8)
		if k.tri.level != k.line.level {
			t.Fatalf("depth %d: tri.level=%d line.level=%d, want equal", d, k.tri.level, k.line.level)
		}
	}
}

func TestRoundTripRandomDepth(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 1000; trial++ {
		depth := 1 + rng.Intn(10)
		k := Root()
		var lastChild int
		for d := 0; d < depth; d++ {
			lastChild = rng.Intn(8)
			k = k.Child(lastChild)
		}
		parent, ok := k.Parent()
		if !ok {
			t.Fatalf("depth %d key reported no parent", depth)
		}
		back := parent.Child(lastChild)
		if back.Compare(k) != 0 {
			t.Fatalf("parent(child(K,i)) != K at depth %d: got %v want %v", depth, back, k)
		}
	}
}

func TestChildBoundsSubsetOfParent(t *testing.T) {
	t.Parallel()

	root := Root()
	parentBounds := root.CellBounds()
	for i := 0; i < 8; i++ {
		cb := root.Child(i).CellBounds()
		if !parentBounds.ContainsBox(cb) {
			t.Fatalf("child %d bounds %v not contained in parent bounds %v", i, cb, parentBounds)
		}
	}
}

func TestEncodeContains(t *testing.T) {
	t.Parallel()

	codec := NewCodec()
	rng := rand.New(rand.NewSource(8))
	for trial := 0; trial < 2000; trial++ {
		p := lucien.Position{
			X: rng.Float64() * (lucien.MaxCoord - 1),
			Y: rng.Float64() * (lucien.MaxCoord - 1),
			Z: rng.Float64() * (lucien.MaxCoord - 1),
		}
		level := 1 + rng.Intn(12)
		k, err := codec.Encode(p, level)
		if err != nil {
			t.Fatalf("Encode(%v, %d): %v", p, level, err)
		}
		if !k.Contains(p) {
			t.Fatalf("Encode(%v, %d) = %v does not contain p", p, level, k)
		}
	}
}

func TestFaceZRoundTrip(t *testing.T) {
	t.Parallel()

	nf := NewNeighborFinder()
	codec := NewCodec()
	center := lucien.Position{X: lucien.MaxCoord / 2, Y: lucien.MaxCoord / 2, Z: lucien.MaxCoord / 2}
	k, err := codec.Encode(center, 6)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	n, ok := nf.FaceNeighbor(k, FaceZMax)
	if !ok {
		t.Fatal("FaceNeighbor(FaceZMax) reported no neighbor")
	}
	back, ok := nf.FaceNeighbor(n, FaceZMin)
	if !ok {
		t.Fatal("FaceNeighbor(FaceZMin) reported no neighbor")
	}
	if back.Compare(k) != 0 {
		t.Fatalf("Z face round trip: got %v want %v", back, k)
	}
}
