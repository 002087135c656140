// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"context"

	"github.com/lucien3d/lucien/octree"
	"github.com/lucien3d/lucien/prism"
	"github.com/lucien3d/lucien/tetree"
)

// SpatialIndex is the variant-agnostic external interface of SPEC_FULL.md
// §6: "engine = create(variant, domain_bounds, max_level, options)". Every
// [Engine][K] satisfies it through one of the small per-variant adapters
// below, so callers that don't need to be generic over the key type can
// work entirely through this interface.
type SpatialIndex interface {
	Variant() Variant
	Options() Options

	Insert(point Position, level int, content any, bounds *AABB) (EntityID, error)
	Remove(id EntityID) error
	Lookup(id EntityID) (Position, any, *AABB, error)
	Move(id EntityID, newPoint Position, newLevel int) error

	KNearest(point Position, k int, maxDistance float64) ([]ScoredEntity, error)
	EntitiesInRegion(region AABB) ([]EntityID, error)
	RayCast(ray Ray, mode RayHitMode, maxDistance float64) ([]RayHit, error)
	FrustumCull(f Frustum) ([]EntityID, error)
	PlaneQuery(pl Plane) ([]EntityID, error)

	BulkLoad(ctx context.Context, items []BulkItem) []BulkItemResult

	EntityCount() int
	NodeCount() int
	Statistics() Statistics
	Validate() error

	Shutdown()
}

// engineAdapter adapts the generic *Engine[K] to the non-generic
// SpatialIndex interface. All methods simply forward; it exists only
// because Go does not allow a generic type to directly satisfy a
// non-generic interface when the interface's methods must be callable
// without the caller knowing K.
type engineAdapter[K Key[K]] struct{ e *Engine[K] }

func (a engineAdapter[K]) Variant() Variant { return a.e.Variant() }
func (a engineAdapter[K]) Options() Options { return a.e.Options() }

func (a engineAdapter[K]) Insert(point Position, level int, content any, bounds *AABB) (EntityID, error) {
	return a.e.Insert(point, level, content, bounds)
}
func (a engineAdapter[K]) Remove(id EntityID) error { return a.e.Remove(id) }
func (a engineAdapter[K]) Lookup(id EntityID) (Position, any, *AABB, error) { return a.e.Lookup(id) }
func (a engineAdapter[K]) Move(id EntityID, newPoint Position, newLevel int) error {
	return a.e.Move(id, newPoint, newLevel)
}

func (a engineAdapter[K]) KNearest(point Position, k int, maxDistance float64) ([]ScoredEntity, error) {
	return a.e.KNearest(point, k, maxDistance)
}
func (a engineAdapter[K]) EntitiesInRegion(region AABB) ([]EntityID, error) {
	return a.e.EntitiesInRegion(region)
}
func (a engineAdapter[K]) RayCast(ray Ray, mode RayHitMode, maxDistance float64) ([]RayHit, error) {
	return a.e.RayCast(ray, mode, maxDistance)
}
func (a engineAdapter[K]) FrustumCull(f Frustum) ([]EntityID, error) { return a.e.FrustumCull(f) }
func (a engineAdapter[K]) PlaneQuery(pl Plane) ([]EntityID, error)   { return a.e.PlaneQuery(pl) }

func (a engineAdapter[K]) BulkLoad(ctx context.Context, items []BulkItem) []BulkItemResult {
	return a.e.BulkLoad(ctx, items)
}

func (a engineAdapter[K]) EntityCount() int      { return a.e.EntityCount() }
func (a engineAdapter[K]) NodeCount() int        { return a.e.NodeCount() }
func (a engineAdapter[K]) Statistics() Statistics { return a.e.Statistics() }
func (a engineAdapter[K]) Validate() error       { return a.e.Validate() }
func (a engineAdapter[K]) Shutdown()             { a.e.Shutdown() }

// Create constructs a [SpatialIndex] for the requested variant
// (SPEC_FULL.md §6). Use the typed [NewOctree]/[NewTetree]/[NewPrism]
// constructors directly when generic access to the concrete key type is
// needed (e.g. variant-specific neighbor queries).
func Create(variant Variant, opts Options) (SpatialIndex, error) {
	switch variant {
	case Octree:
		return engineAdapter[octree.Key]{e: NewOctree(opts)}, nil
	case Tetree:
		return engineAdapter[tetree.Key]{e: NewTetree(opts)}, nil
	case Prism:
		return engineAdapter[prism.Key]{e: NewPrism(opts)}, nil
	default:
		return nil, ErrInvalidType
	}
}
