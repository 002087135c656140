// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lucien3d/lucien/internal/cache"
)

// Engine is the abstract spatial-index core shared by all three variants
// (SPEC_FULL.md §4.2). It is generic over the key type K; concrete
// variants (package octree/tetree/prism) supply only the [Codec] and
// [NeighborFinder]. All shared algorithms — insert/remove/update/lookup,
// queries, bulk load, the lock-free mover, the k-NN cache — live here,
// written once.
type Engine[K Key[K]] struct {
	variant  Variant
	opts     Options
	codec    Codec[K]
	neighbor NeighborFinder[K]

	nodes    *nodeMap[K]
	entities *entityManager
	ghosts   *GhostStore[K]

	strategy   SubdivisionStrategy
	strategyMu sync.RWMutex

	globalVersion atomic.Uint64
	knnCache      *knnCache[K]
	keyCache      *cache.Handle[string, K]

	listeners listenerRegistry
	dsoc      atomic.Pointer[DSOCHook]

	lifecycle lifecycle
	wg        sync.WaitGroup
}

func newEngine[K Key[K]](variant Variant, codec Codec[K], neighbor NeighborFinder[K], opts Options) *Engine[K] {
	var gen IDGenerator
	if opts.IDGenerator == IDUUID {
		gen = NewUUIDIDGenerator()
	} else {
		gen = NewSequentialIDGenerator()
	}

	e := &Engine[K]{
		variant:  variant,
		opts:     opts,
		codec:    codec,
		neighbor: neighbor,
		nodes:    newNodeMap[K](),
		entities: newEntityManager(gen),
		ghosts:   newGhostStore[K](),
		strategy: newStrategy(opts.Balancing),
		keyCache: cache.New[string, K](opts.KeyCacheCapacity),
	}
	var hook DSOCHook = NullDSOCHook{}
	e.dsoc.Store(&hook)

	if opts.KNNCacheEnabled {
		e.knnCache = newKNNCache[K](opts.KNNCacheCapacity)
	}
	e.lifecycle.start()
	return e
}

// Variant reports which geometry this engine implements.
func (e *Engine[K]) Variant() Variant { return e.variant }

// Options returns the engine's active configuration.
func (e *Engine[K]) Options() Options { return e.opts }

func (e *Engine[K]) bumpVersion() uint64 { return e.globalVersion.Add(1) }

// CurrentVersion returns the global mutation-version counter.
func (e *Engine[K]) CurrentVersion() uint64 { return e.globalVersion.Load() }

// SetSubdivisionStrategy installs a new subdivision policy, replacing the
// one set at construction or by a previous call (SPEC_FULL.md §6
// "set_subdivision_strategy").
func (e *Engine[K]) SetSubdivisionStrategy(s SubdivisionStrategy) {
	e.strategyMu.Lock()
	e.strategy = s
	e.strategyMu.Unlock()
}

func (e *Engine[K]) currentStrategy() SubdivisionStrategy {
	e.strategyMu.RLock()
	defer e.strategyMu.RUnlock()
	return e.strategy
}

// SetSpanningPolicy changes how bounded entities are placed across cells
// (SPEC_FULL.md §6 "set_spanning_policy").
func (e *Engine[K]) SetSpanningPolicy(p SpanningPolicy) { e.opts.SpanningPolicy = p }

// SetNeighborFinder overrides the variant's neighbor-finding logic
// (SPEC_FULL.md §6 "set_neighbor_finder (variant-specific)").
func (e *Engine[K]) SetNeighborFinder(nf NeighborFinder[K]) { e.neighbor = nf }

// SetDSOCHook installs the occlusion-culling collaborator's configuration
// hook (SPEC_FULL.md §5, §D).
func (e *Engine[K]) SetDSOCHook(h DSOCHook) {
	if h == nil {
		h = NullDSOCHook{}
	}
	e.dsoc.Store(&h)
}

func (e *Engine[K]) dsocHook() DSOCHook { return *e.dsoc.Load() }

// RegisterMutationListener subscribes fn to every future mutation event and
// returns a function that unregisters it (SPEC_FULL.md §6
// "register_mutation_listener").
func (e *Engine[K]) RegisterMutationListener(fn MutationListener) (unregister func()) {
	return e.listeners.register(fn)
}

// Ghosts exposes the ghost-layer interface consumed by distributed
// collaborators (SPEC_FULL.md §4.9).
func (e *Engine[K]) Ghosts() *GhostStore[K] { return e.ghosts }

// EntityCount returns how many distinct entities are currently indexed.
func (e *Engine[K]) EntityCount() int { return e.entities.count() }

// NodeCount returns how many nodes are currently resident in the node map.
func (e *Engine[K]) NodeCount() int { return e.nodes.len() }

// encodeCached wraps codec.Encode with the process-global, per-engine key
// cache (SPEC_FULL.md §4.1 "key-for-(coord,level,type) cache", §B
// ristretto wiring): repeated inserts/moves at the same quantized
// coordinate and level are the common case during bulk loads and
// steady-state updates, so this avoids re-deriving the bit-level encoding
// each time.
func (e *Engine[K]) encodeCached(p Position, level int) (K, error) {
	x, y, z := p.Quantize()
	ck := fmt.Sprintf("%d:%d:%d:%d", x, y, z, level)
	if v, ok := e.keyCache.Get(ck); ok {
		return v, nil
	}
	k, err := e.codec.Encode(p, level)
	if err != nil {
		var zero K
		return zero, err
	}
	e.keyCache.Set(ck, k)
	return k, nil
}

func (e *Engine[K]) validateLevel(level int) error {
	if level < 0 || level > e.codec.MaxLevel() || level > e.opts.MaxLevel {
		return ErrInvalidLevel
	}
	return nil
}

// Insert adds a new entity at point/level, returning its assigned ID.
// SPEC_FULL.md §4.2: compute K = encode(point, level); materialize-or-get
// the node; add the ID; place spanning references if bounds+policy call
// for it; advance global version; invalidate the k-NN cache.
func (e *Engine[K]) Insert(point Position, level int, content any, bounds *AABB) (EntityID, error) {
	id, _, err := e.insert(0, false, point, level, content, bounds, false)
	return id, err
}

// InsertWithID is Insert but the caller supplies the ID (used by the bulk
// loader to pre-assign IDs before sorting).
func (e *Engine[K]) InsertWithID(id EntityID, point Position, level int, content any, bounds *AABB) error {
	_, _, err := e.insert(id, true, point, level, content, bounds, false)
	return err
}

// insertDeferred is Insert/InsertWithID with the post-insert subdivision
// check skipped; it also returns the primary key the entity landed on, so
// [Engine.BulkLoad] can batch many inserts and run evaluateSplit once per
// distinct touched key afterward instead of once per item (SPEC_FULL.md
// §4.6's deferred rebalance pass).
func (e *Engine[K]) insertDeferred(id EntityID, explicitID bool, point Position, level int, content any, bounds *AABB) (EntityID, K, error) {
	return e.insert(id, explicitID, point, level, content, bounds, true)
}

func (e *Engine[K]) insert(id EntityID, explicitID bool, point Position, level int, content any, bounds *AABB, deferSplit bool) (EntityID, K, error) {
	var zero K
	if err := e.lifecycle.checkOperating(); err != nil {
		return 0, zero, err
	}
	if err := point.Validate(); err != nil {
		return 0, zero, err
	}
	if err := e.validateLevel(level); err != nil {
		return 0, zero, err
	}
	if bounds != nil {
		if err := bounds.Min.Validate(); err != nil {
			return 0, zero, err
		}
		if err := bounds.Max.Validate(); err != nil {
			return 0, zero, err
		}
	}

	key, err := e.encodeCached(point, level)
	if err != nil {
		return 0, zero, err
	}

	var u uuid.UUID
	if !explicitID {
		id, u = e.entities.nextID()
	}

	rec := &entityRecord{
		id:      id,
		uuid:    u,
		point:   point,
		content: content,
		bounds:  bounds,
		version: 1,
	}

	touched := e.placeReferences(key, level, id, bounds, rec)
	rec.nodeKeys = touched
	e.entities.store(rec)

	e.bumpVersion()
	if !deferSplit {
		e.evaluateSplit(key, level)
	}
	e.listeners.emit(MutationEvent{Kind: MutationInsert, Entity: id, Point: point})

	return id, key, nil
}

// placeReferences adds id to the primary node at key, and — if spanning is
// enabled and bounds are present — to every node whose cell intersects
// bounds (SPEC_FULL.md §4.3 spanning policy). It returns every key
// referenced, boxed as `any` for storage on the entity record (K is a
// concrete comparable type per engine instantiation).
func (e *Engine[K]) placeReferences(key K, level int, id EntityID, bounds *AABB, _ *entityRecord) []any {
	primary, _ := e.nodes.getOrCreate(key)
	primary.addRef(id)
	touched := []any{key}

	if bounds == nil || e.opts.SpanningPolicy == SpanningNone {
		return touched
	}

	cells := cellsIntersecting[K](e.codec, *bounds, level)
	for _, ck := range cells {
		if ck.Compare(key) == 0 {
			continue
		}
		n, _ := e.nodes.getOrCreate(ck)
		if n.addRef(id) {
			touched = append(touched, ck)
		}
	}
	return touched
}

// Lookup returns the current position, content and bounds of id.
func (e *Engine[K]) Lookup(id EntityID) (point Position, content any, bounds *AABB, err error) {
	rec, ok := e.entities.load(id)
	if !ok {
		return Position{}, nil, nil, ErrEntityNotFound
	}
	return rec.point, rec.content, rec.bounds, nil
}

// Remove deletes id from the index entirely.
func (e *Engine[K]) Remove(id EntityID) error {
	if err := e.lifecycle.checkOperating(); err != nil {
		return err
	}
	rec, ok := e.entities.load(id)
	if !ok {
		return ErrEntityNotFound
	}

	for _, kAny := range rec.nodeKeys {
		k := kAny.(K)
		if n, ok := e.nodes.get(k); ok {
			n.removeRef(id)
			e.evaluateMerge(k)
		}
	}
	e.entities.delete(id)
	e.bumpVersion()
	e.listeners.emit(MutationEvent{Kind: MutationRemove, Entity: id, Point: rec.point})
	return nil
}

// evaluateSplit checks the subdivision strategy and, if it calls for a
// split, performs it (SPEC_FULL.md §4.4).
func (e *Engine[K]) evaluateSplit(key K, level int) {
	if level >= e.opts.MaxLevel || level >= e.codec.MaxLevel() {
		return
	}
	n, ok := e.nodes.get(key)
	if !ok {
		return
	}
	if !e.currentStrategy().ShouldSplit(level, n.Len(), e.opts.MaxEntitiesPerNode) {
		return
	}
	e.split(key, n, level)
}

// split redistributes key's entities one level deeper (SPEC_FULL.md §4.4):
// each entity moves to its level+1 child, losing its reference to key so
// the parent can eventually empty out and merge. An entity spanning other
// cells (via placeReferences) keeps those unrelated references untouched.
func (e *Engine[K]) split(key K, n *Node[K], level int) {
	if !n.casState(stateStable, stateSplitting) {
		return // another goroutine is already splitting this node
	}
	defer n.setState(stateStable)

	ids := n.Entities()
	for _, id := range ids {
		rec, ok := e.entities.load(id)
		if !ok {
			continue
		}
		childKey, err := e.codec.Encode(rec.point, level+1)
		if err != nil {
			continue
		}
		child, _ := e.nodes.getOrCreate(childKey)
		if child.addRef(id) {
			e.moveNodeKey(id, key, childKey)
		}
		n.removeRef(id)
	}
	e.evaluateMerge(key)
	e.listeners.emit(MutationEvent{Kind: MutationSplit, Point: key.CellBounds().Center()})
}

func (e *Engine[K]) appendNodeKey(id EntityID, key K) {
	rec, ok := e.entities.load(id)
	if !ok {
		return
	}
	for {
		next := &entityRecord{
			id: rec.id, uuid: rec.uuid, point: rec.point, content: rec.content,
			bounds: rec.bounds, dynamics: rec.dynamics, version: rec.version,
			nodeKeys: append(append([]any{}, rec.nodeKeys...), key),
		}
		if e.entities.cas(id, rec, next) {
			return
		}
		rec, ok = e.entities.load(id)
		if !ok {
			return
		}
	}
}

// moveNodeKey replaces id's first reference to oldKey with newKey, used by
// split to swap a parent reference for the child it redistributed the
// entity to. Any other references the entity holds (spanning, or a second
// copy of oldKey) are left alone.
func (e *Engine[K]) moveNodeKey(id EntityID, oldKey, newKey K) {
	rec, ok := e.entities.load(id)
	if !ok {
		return
	}
	for {
		keys := make([]any, 0, len(rec.nodeKeys)+1)
		removed := false
		for _, kAny := range rec.nodeKeys {
			if !removed {
				if k, ok := kAny.(K); ok && k.Compare(oldKey) == 0 {
					removed = true
					continue
				}
			}
			keys = append(keys, kAny)
		}
		keys = append(keys, newKey)
		next := &entityRecord{
			id: rec.id, uuid: rec.uuid, point: rec.point, content: rec.content,
			bounds: rec.bounds, dynamics: rec.dynamics, version: rec.version,
			nodeKeys: keys,
		}
		if e.entities.cas(id, rec, next) {
			return
		}
		rec, ok = e.entities.load(id)
		if !ok {
			return
		}
	}
}

// evaluateMerge checks whether key's node (now possibly empty) should be
// merged away, scheduling the evaluation per SPEC_FULL.md §4.4's
// "merge_when... across a full set of siblings and parent not root".
func (e *Engine[K]) evaluateMerge(key K) {
	n, ok := e.nodes.get(key)
	if !ok || !n.Empty() {
		return
	}
	parent, hasParent := key.Parent()
	if !hasParent || parent.IsRoot() {
		e.nodes.deleteIfEmpty(key)
		return
	}

	total := 0
	allEmpty := true
	for i := 0; i < parent.ChildCount(); i++ {
		c := parent.Child(i)
		if cn, ok := e.nodes.get(c); ok {
			total += cn.Len()
			if !cn.Empty() {
				allEmpty = false
			}
		}
	}
	if !allEmpty {
		e.nodes.deleteIfEmpty(key)
		return
	}
	if !e.currentStrategy().ShouldMerge(key.Level(), total, e.opts.MaxEntitiesPerNode) {
		e.nodes.deleteIfEmpty(key)
		return
	}
	for i := 0; i < parent.ChildCount(); i++ {
		e.nodes.deleteIfEmpty(parent.Child(i))
	}
	e.listeners.emit(MutationEvent{Kind: MutationMerge, Point: parent.CellBounds().Center()})
}

// Shutdown transitions the engine to its closing state and drains
// background tasks (bulk-load worker pools in flight). It is idempotent.
func (e *Engine[K]) Shutdown() {
	if e.lifecycle.beginClosing() {
		e.wg.Wait()
		e.keyCache.Close()
		e.lifecycle.finishClosing()
	}
}
