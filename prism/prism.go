// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

// Package prism implements the composite triangle x line key used by the
// anisotropic Prism variant: a 2D triangular base (refined 4-way, like a
// red/longest-edge triangle bisection) extruded along Z and refined
// independently as a 1D interval (2-way) (SPEC_FULL.md §4.1 "Prism:
// composite key"). The two sub-keys are kept at a synchronized level by
// construction: every operation advances both by exactly one level at a
// time, via childIndex = triChild + 4*lineChild.
package prism

import (
	"fmt"

	"github.com/lucien3d/lucien"
)

// MaxLevel matches lucien.MaxLevel.
const MaxLevel = lucien.MaxLevel

// triKey is the 2D triangular-base sub-key: a quadrant code (2 bits per
// level, same style as octree.Key but over X/Y only) plus a diagonal
// orientation type (0 = "/" diagonal, 1 = "\" diagonal) used by Contains.
// Child index 3 (the longest-edge-bisection "middle" child) flips the
// orientation; children 0-2 (the corner children) keep it, matching the
// standard red/longest-edge triangle refinement's 3-same + 1-flipped child
// shape.
type triKey struct {
	level int
	code  uint64
	typ   int
}

func triChildType(parentType, idx int) int {
	if idx == 3 {
		return 1 - parentType
	}
	return parentType
}

func triParentType(childType, idx int) int {
	if idx == 3 {
		return 1 - childType
	}
	return childType
}

func (k triKey) child(i int) triKey {
	return triKey{level: k.level + 1, code: k.code<<2 | uint64(i&3), typ: triChildType(k.typ, i&3)}
}

func (k triKey) parent() (triKey, bool) {
	if k.level == 0 {
		return triKey{}, false
	}
	idx := int(k.code & 3)
	return triKey{level: k.level - 1, code: k.code >> 2, typ: triParentType(k.typ, idx)}, true
}

func (k triKey) coordBits() (x, y uint32) {
	for i := 0; i < k.level; i++ {
		shift := 2 * (k.level - 1 - i)
		q := (k.code >> shift) & 3
		x = x<<1 | uint32((q>>1)&1)
		y = y<<1 | uint32(q&1)
	}
	return x, y
}

func (k triKey) squareBounds() (minX, minY, size float64) {
	if k.level == 0 {
		return 0, 0, lucien.MaxCoord
	}
	x, y := k.coordBits()
	sz := float64(uint32(1) << uint(MaxLevel-k.level))
	return float64(x) * sz, float64(y) * sz, sz
}

// contains tests whether (x,y) lies in the half of the quadrant square that
// k's orientation selects.
func (k triKey) contains(x, y float64) bool {
	minX, minY, size := k.squareBounds()
	if x < minX || y < minY || x > minX+size || y > minY+size {
		return false
	}
	if size <= 0 {
		return true
	}
	u, v := (x-minX)/size, (y-minY)/size
	if k.typ == 0 {
		return u+v <= 1 // "/" diagonal: lower-left triangle
	}
	return u+v >= 1 // "\" diagonal-complement: upper-right triangle
}

// lineKey is the 1D Z-axis extrusion sub-key: a simple interval-halving
// code, 1 bit per level.
type lineKey struct {
	level int
	code  uint64
}

func (k lineKey) child(i int) lineKey {
	return lineKey{level: k.level + 1, code: k.code<<1 | uint64(i&1)}
}

func (k lineKey) parent() (lineKey, bool) {
	if k.level == 0 {
		return lineKey{}, false
	}
	return lineKey{level: k.level - 1, code: k.code >> 1}, true
}

func (k lineKey) bounds() (min, size float64) {
	if k.level == 0 {
		return 0, lucien.MaxCoord
	}
	var bits uint32
	for i := 0; i < k.level; i++ {
		shift := uint(k.level - 1 - i)
		bits = bits<<1 | uint32((k.code>>shift)&1)
	}
	sz := float64(uint32(1) << uint(MaxLevel-k.level))
	return float64(bits) * sz, sz
}

// Key is the composite Prism key: tri and line are always kept at the same
// level.
type Key struct {
	tri  triKey
	line lineKey
}

// Root returns the level-0 key covering the whole domain, type "/" by
// convention.
func Root() Key { return Key{} }

func (k Key) Level() int   { return k.tri.level }
func (k Key) IsRoot() bool { return k.tri.level == 0 }

func (k Key) Parent() (Key, bool) {
	tp, ok := k.tri.parent()
	if !ok {
		return Key{}, false
	}
	lp, _ := k.line.parent()
	return Key{tri: tp, line: lp}, true
}

// Child returns the i'th child (i in [0,8)): triChild = i % 4, lineChild =
// i / 4, per the package doc's c = triChild + 4*lineChild convention.
func (k Key) Child(i int) Key {
	i &= 7
	triChild, lineChild := i%4, i/4
	return Key{tri: k.tri.child(triChild), line: k.line.child(lineChild)}
}

// ChildCount is 8: 4 triangular children x 2 vertical children.
func (k Key) ChildCount() int { return 8 }

func (k Key) Compare(other Key) int {
	if k.tri.level != other.tri.level {
		if k.tri.level < other.tri.level {
			return -1
		}
		return 1
	}
	if k.tri.code != other.tri.code {
		if k.tri.code < other.tri.code {
			return -1
		}
		return 1
	}
	if k.tri.typ != other.tri.typ {
		if k.tri.typ < other.tri.typ {
			return -1
		}
		return 1
	}
	switch {
	case k.line.code < other.line.code:
		return -1
	case k.line.code > other.line.code:
		return 1
	default:
		return 0
	}
}

// SFCRange returns k's own closed interval (k, k); it does not cover k's
// descendants. See octree.Key.SFCRange for how range queries work without
// a literal numeric range.
func (k Key) SFCRange() (min, max Key) { return k, k }

func (k Key) String() string {
	return fmt.Sprintf("prism(L%d:tri=%#o/%d,line=%#o)", k.tri.level, k.tri.code, k.tri.typ, k.line.code)
}

// CellBounds returns the bounding box of the prism cell: the triangular
// base's bounding square in X/Y, the line sub-key's interval in Z.
func (k Key) CellBounds() lucien.AABB {
	minX, minY, sizeXY := k.tri.squareBounds()
	minZ, sizeZ := k.line.bounds()
	return lucien.AABB{
		Min: lucien.Position{X: minX, Y: minY, Z: minZ},
		Max: lucien.Position{X: minX + sizeXY, Y: minY + sizeXY, Z: minZ + sizeZ},
	}
}

// Contains performs the exact test: the triangular half-test in X/Y, and a
// plain interval test in Z.
func (k Key) Contains(p lucien.Position) bool {
	if !k.tri.contains(p.X, p.Y) {
		return false
	}
	minZ, sizeZ := k.line.bounds()
	return p.Z >= minZ && p.Z <= minZ+sizeZ
}

// Codec implements lucien.Codec[Key] for the composite Prism key space.
type Codec struct{}

// NewCodec returns a ready-to-use Prism codec.
func NewCodec() Codec { return Codec{} }

func (Codec) Root() Key     { return Root() }
func (Codec) MaxLevel() int { return MaxLevel }
func (Codec) Name() string  { return "prism" }

// Encode computes the Prism key of the cell at level containing p,
// synchronizing the triangular and line sub-keys one level at a time.
func (Codec) Encode(p lucien.Position, level int) (Key, error) {
	if err := p.Validate(); err != nil {
		return Key{}, err
	}
	if level < 0 || level > MaxLevel {
		return Key{}, lucien.ErrInvalidLevel
	}
	x, y, z := p.Quantize()
	var triCode, lineCode uint64
	triType := 0
	for lvl := 1; lvl <= level; lvl++ {
		shift := uint(MaxLevel - lvl)
		q := ((x>>shift)&1)<<1 | (y >> shift & 1)
		triCode = triCode<<2 | uint64(q)
		lineCode = lineCode<<1 | uint64(z>>shift&1)
	}
	tri := triKey{level: level, code: triCode, typ: triType}
	if !tri.contains(p.X, p.Y) {
		tri.typ = 1
	}
	return Key{tri: tri, line: lineKey{level: level, code: lineCode}}, nil
}

const (
	FaceTriPrev = iota
	FaceTriNext
	FaceZMin
	FaceZMax
)

// NeighborFinder implements lucien.NeighborFinder[Key]. Faces 0 and 1 both
// return the same key: the other-orientation triangle of the same square
// in the same vertical column (mirroring tetree.NeighborFinder's
// cyclic-fan simplification); Face 2/3 step one cell along Z.
type NeighborFinder struct{ codec Codec }

// NewNeighborFinder returns a ready-to-use Prism neighbor finder.
func NewNeighborFinder() NeighborFinder { return NeighborFinder{codec: NewCodec()} }

func (NeighborFinder) FaceCount() int { return 4 }

func (nf NeighborFinder) FaceNeighbor(k Key, face int) (Key, bool) {
	switch face {
	case FaceTriPrev, FaceTriNext:
		flipped := k.tri
		flipped.typ = 1 - flipped.typ
		return Key{tri: flipped, line: k.line}, true
	case FaceZMin, FaceZMax:
		if k.tri.level == 0 {
			return Key{}, false
		}
		cellsAtLevel := int64(1) << uint(k.line.level)
		var zBits int64
		for i := 0; i < k.line.level; i++ {
			shift := uint(k.line.level - 1 - i)
			zBits = zBits<<1 | int64((k.line.code>>shift)&1)
		}
		if face == FaceZMin {
			zBits--
		} else {
			zBits++
		}
		if zBits < 0 || zBits >= cellsAtLevel {
			return Key{}, false
		}
		newLineCode := uint64(zBits) & ((1 << uint(k.line.level)) - 1)
		return Key{tri: k.tri, line: lineKey{level: k.line.level, code: newLineCode}}, true
	default:
		return Key{}, false
	}
}

func (nf NeighborFinder) MultiLevelNeighbors(k Key, kind lucien.NeighborKind) []lucien.NeighborResult[Key] {
	faces := []int{FaceTriPrev, FaceTriNext, FaceZMin, FaceZMax}
	var out []lucien.NeighborResult[Key]
	for _, f := range faces {
		nk, ok := nf.FaceNeighbor(k, f)
		if !ok {
			continue
		}
		out = append(out, lucien.NeighborResult[Key]{Key: nk, Relationship: lucien.SameLevel})
		if parent, hasParent := nk.Parent(); hasParent {
			out = append(out, lucien.NeighborResult[Key]{Key: parent, Relationship: lucien.ParentLevel})
		}
	}
	return out
}
