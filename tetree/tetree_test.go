// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package tetree

import (
	"math/rand"
	"testing"

	"github.com/lucien3d/lucien"
)

func TestRootIsTypeZero(t *testing.T) {
	t.Parallel()

	root := Root()
	if root.Type() != 0 {
		t.Fatalf("Root().Type() = %d, want 0", root.Type())
	}
	if !root.Valid() {
		t.Fatal("Root() is not Valid()")
	}
}

func TestChildOfRootTypeMatchesOctant(t *testing.T) {
	t.Parallel()

	root := Root()
	for i := 0; i < 8; i++ {
		child := root.Child(i)
		want := i % 6
		if child.Type() != want {
			t.Fatalf("Child(root, %d).Type() = %d, want %d", i, child.Type(), want)
		}
	}
}

func TestChildOfRootFive(t *testing.T) {
	t.Parallel()

	// Worked example: child(root, 5) sits in the upper-X, lower-Y,
	// upper-Z octant of the root cube at level 1, with type 5.
	child := Root().Child(5)
	if child.Type() != 5 {
		t.Fatalf("Child(root,5).Type() = %d, want 5", child.Type())
	}
	b := child.CellBounds()
	half := float64(lucien.MaxCoord / 2)
	if b.Min.X != half || b.Min.Y != 0 || b.Min.Z != half {
		t.Fatalf("Child(root,5).CellBounds().Min = %v, want (%v,0,%v)", b.Min, half, half)
	}
}

func TestValidEveryChildOfValid(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 500; trial++ {
		k := Root()
		depth := 1 + rng.Intn(8)
		for d := 0; d < depth; d++ {
			k = k.Child(rng.Intn(8))
			if !k.Valid() {
				t.Fatalf("depth %d: %v is not Valid()", d, k)
			}
		}
	}
}

func TestParentChildRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 1000; trial++ {
		k := Root()
		depth := 1 + rng.Intn(10)
		var lastOctant int
		for d := 0; d < depth; d++ {
			lastOctant = rng.Intn(8)
			k = k.Child(lastOctant)
		}
		parent, ok := k.Parent()
		if !ok {
			t.Fatalf("depth %d key reported no parent", depth)
		}
		if !parent.Valid() {
			t.Fatalf("parent(%v) = %v is not Valid()", k, parent)
		}
		back := parent.Child(lastOctant)
		if back.Compare(k) != 0 {
			t.Fatalf("parent(child(K,i)) != K: got %v want %v", back, k)
		}
	}
}

func TestEncodeContains(t *testing.T) {
	t.Parallel()

	codec := NewCodec()
	rng := rand.New(rand.NewSource(5))
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
		if !k.Valid() {
			t.Fatalf("Encode(%v, %d) = %v is not Valid()", p, level, k)
		}
	}
}

func TestSixTypesTileCube(t *testing.T) {
	t.Parallel()

	// Every point in a cube belongs to exactly one of the 6 characteristic
	// tetrahedra, except on shared boundary faces where Contains's
	// non-strict inequalities admit more than one (expected: the fan of
	// 6 tetrahedra share a main diagonal, so boundary points are legally
	// members of two or more).
	rng := rand.New(rand.NewSource(6))
	root := Root()
	for trial := 0; trial < 2000; trial++ {
		p := lucien.Position{
			X: rng.Float64() * (lucien.MaxCoord - 1),
			Y: rng.Float64() * (lucien.MaxCoord - 1),
			Z: rng.Float64() * (lucien.MaxCoord - 1),
		}
		hit := 0
		for typ := 0; typ < 6; typ++ {
			k := Key{level: root.level, code: root.code, typ: typ}
			if k.Contains(p) {
				hit++
			}
		}
		if hit == 0 {
			t.Fatalf("point %v not covered by any of the 6 characteristic tetrahedra", p)
		}
	}
}

func TestFaceNeighborCyclicRoundTrip(t *testing.T) {
	t.Parallel()

	nf := NewNeighborFinder()
	codec := NewCodec()
	center := lucien.Position{X: lucien.MaxCoord / 2, Y: lucien.MaxCoord / 2, Z: lucien.MaxCoord / 2}
	k, err := codec.Encode(center, 6)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	n, ok := nf.FaceNeighbor(k, FaceCyclicNext)
	if !ok {
		t.Fatal("FaceNeighbor(FaceCyclicNext) reported no neighbor")
	}
	back, ok := nf.FaceNeighbor(n, FaceCyclicPrev)
	if !ok {
		t.Fatal("FaceNeighbor(FaceCyclicPrev) reported no neighbor")
	}
	if back.Compare(k) != 0 {
		t.Fatalf("cyclic face round trip: got %v want %v", back, k)
	}
}
