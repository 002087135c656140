// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

// Variant selects which spatial-index geometry an [Engine] implements.
type Variant int

const (
	// Octree is cubic, Morton-curve keyed.
	Octree Variant = iota
	// Tetree is tetrahedral S0-S5 subdivision, TM-SFC keyed.
	Tetree
	// Prism is anisotropic (triangular base x linear height), composite
	// keyed.
	Prism
)

func (v Variant) String() string {
	switch v {
	case Octree:
		return "octree"
	case Tetree:
		return "tetree"
	case Prism:
		return "prism"
	default:
		return "unknown"
	}
}

// BalancingStrategyKind selects one of the built-in subdivision policies
// (SPEC_FULL.md §4.4).
type BalancingStrategyKind int

const (
	BalancingDefault BalancingStrategyKind = iota
	BalancingAggressive
	BalancingConservative
	BalancingAdaptive
)

// IDGeneratorKind selects entity ID generation (SPEC_FULL.md §6).
type IDGeneratorKind int

const (
	IDSequential IDGeneratorKind = iota
	IDUUID
)

// Options configures an [Engine]. The zero value is not meaningful; use
// [DefaultOptions] and override with Option funcs, mirroring the teacher's
// functional-option-free zero-value Table[V] where practical, but eager
// here because the node map, caches and entity manager must exist before
// first use.
type Options struct {
	MaxEntitiesPerNode int
	MaxLevel           int
	SpanningPolicy     SpanningPolicy
	Balancing          BalancingStrategyKind
	BulkBatchSize      int
	BulkParallel       bool
	KNNCacheCapacity   int
	KNNCacheEnabled    bool
	OptimisticReads    bool
	IDGenerator        IDGeneratorKind
	KeyCacheCapacity   int64
}

// DefaultOptions returns the engine's default configuration.
func DefaultOptions() Options {
	return Options{
		MaxEntitiesPerNode: 32,
		MaxLevel:           MaxLevel,
		SpanningPolicy:     SpanningNone,
		Balancing:          BalancingDefault,
		BulkBatchSize:      4096,
		BulkParallel:       false,
		KNNCacheCapacity:   4096,
		KNNCacheEnabled:    true,
		OptimisticReads:    true,
		IDGenerator:        IDSequential,
		KeyCacheCapacity:   16384,
	}
}

// Option mutates an Options value during construction.
type Option func(*Options)

func WithMaxEntitiesPerNode(n int) Option { return func(o *Options) { o.MaxEntitiesPerNode = n } }
func WithMaxLevel(l int) Option           { return func(o *Options) { o.MaxLevel = l } }
func WithSpanningPolicy(p SpanningPolicy) Option {
	return func(o *Options) { o.SpanningPolicy = p }
}
func WithBalancingStrategy(k BalancingStrategyKind) Option {
	return func(o *Options) { o.Balancing = k }
}
func WithBulkBatchSize(n int) Option { return func(o *Options) { o.BulkBatchSize = n } }
func WithBulkParallel(b bool) Option { return func(o *Options) { o.BulkParallel = b } }
func WithKNNCache(enabled bool, capacity int) Option {
	return func(o *Options) { o.KNNCacheEnabled = enabled; o.KNNCacheCapacity = capacity }
}
func WithOptimisticReads(b bool) Option { return func(o *Options) { o.OptimisticReads = b } }
func WithIDGenerator(k IDGeneratorKind) Option {
	return func(o *Options) { o.IDGenerator = k }
}
func WithKeyCacheCapacity(n int64) Option { return func(o *Options) { o.KeyCacheCapacity = n } }
