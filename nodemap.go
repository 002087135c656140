// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"github.com/google/btree"
)

// nodeMap is the concurrent, sorted map from key to [Node] described in
// SPEC_FULL.md §3 "Node map" / §B. It is backed by [btree.BTreeG], ordered
// by [Key.Compare], and guarded by a [stampedLock]: structural writers
// (create/destroy a node) hold the lock in exclusive mode; single-key
// lookups (get) take the optimistic-read fast path and fall back to a
// shared lock on validation failure; ordered walks (ascend, ascendRange,
// snapshot) hold the shared lock for the whole walk.
type nodeMap[K Key[K]] struct {
	lock stampedLock
	tree *btree.BTreeG[nodeMapEntry[K]]
}

type nodeMapEntry[K Key[K]] struct {
	key  K
	node *Node[K]
}

func nodeMapLess[K Key[K]]() func(a, b nodeMapEntry[K]) bool {
	return func(a, b nodeMapEntry[K]) bool { return a.key.Compare(b.key) < 0 }
}

const nodeMapDegree = 32

func newNodeMap[K Key[K]]() *nodeMap[K] {
	return &nodeMap[K]{
		tree: btree.NewG[nodeMapEntry[K]](nodeMapDegree, nodeMapLess[K]()),
	}
}

// get returns the node at key, if resident.
func (m *nodeMap[K]) get(key K) (*Node[K], bool) {
	stamp := m.lock.TryOptimisticRead()
	e, ok := m.tree.Get(nodeMapEntry[K]{key: key})
	if !m.lock.Validate(stamp) {
		m.lock.RLock()
		e, ok = m.tree.Get(nodeMapEntry[K]{key: key})
		m.lock.RUnlock()
	}
	if !ok {
		return nil, false
	}
	return e.node, true
}

// getOrCreate returns the node at key, creating and inserting it under the
// exclusive lock if absent.
func (m *nodeMap[K]) getOrCreate(key K) (node *Node[K], created bool) {
	if n, ok := m.get(key); ok {
		return n, false
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if e, ok := m.tree.Get(nodeMapEntry[K]{key: key}); ok {
		return e.node, false
	}
	n := newNode[K](key)
	m.tree.ReplaceOrInsert(nodeMapEntry[K]{key: key, node: n})
	return n, true
}

// delete removes the node at key, if present.
func (m *nodeMap[K]) delete(key K) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tree.Delete(nodeMapEntry[K]{key: key})
}

// deleteIfEmpty removes the node at key only if it currently holds no
// entity references; used by merge evaluation to avoid racing a concurrent
// insert into the same cell.
func (m *nodeMap[K]) deleteIfEmpty(key K) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	e, ok := m.tree.Get(nodeMapEntry[K]{key: key})
	if !ok || !e.node.Empty() {
		return false
	}
	m.tree.Delete(nodeMapEntry[K]{key: key})
	return true
}

// len returns the number of resident nodes.
func (m *nodeMap[K]) len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.tree.Len()
}

// ascendRange calls fn for every node whose key lies in [lo, hi], in key
// order, stopping early if fn returns false.
func (m *nodeMap[K]) ascendRange(lo, hi K, fn func(K, *Node[K]) bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	// AscendRange is half-open [lo, hi); hi is looked up separately below so
	// the interval is closed, matching SFCRange's closed-interval result.
	stopped := false
	m.tree.AscendRange(
		nodeMapEntry[K]{key: lo},
		nodeMapEntry[K]{key: hi},
		func(e nodeMapEntry[K]) bool {
			if !fn(e.key, e.node) {
				stopped = true
				return false
			}
			return true
		},
	)
	if stopped {
		return
	}
	// AscendRange excludes hi itself; pick it up separately if resident.
	if e, ok := m.tree.Get(nodeMapEntry[K]{key: hi}); ok {
		fn(e.key, e.node)
	}
}

// ascend calls fn for every node in ascending key order.
func (m *nodeMap[K]) ascend(fn func(K, *Node[K]) bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	m.tree.Ascend(func(e nodeMapEntry[K]) bool { return fn(e.key, e.node) })
}

// snapshot returns every resident (key, node) pair in ascending order. Used
// by Validate and Statistics, where holding the lock for the whole walk is
// acceptable.
func (m *nodeMap[K]) snapshot() []nodeMapEntry[K] {
	m.lock.RLock()
	defer m.lock.RUnlock()
	out := make([]nodeMapEntry[K], 0, m.tree.Len())
	m.tree.Ascend(func(e nodeMapEntry[K]) bool {
		out = append(out, e)
		return true
	})
	return out
}
