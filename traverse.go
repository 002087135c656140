// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import "sort"

// TraversalStrategy selects the node visitation order for [Engine.Traverse]
// (SPEC_FULL.md §4.2 "tree traversal with pluggable order").
type TraversalStrategy int

const (
	TraverseDFSPreOrder TraversalStrategy = iota
	TraverseDFSPostOrder
	TraverseBFS
	TraverseSFCOrder
	TraverseLevelOrder
)

// TraversalAction is returned by a [Visitor]'s OnEnterNode to control
// descent.
type TraversalAction int

const (
	// ActionContinue descends into the node's children as normal.
	ActionContinue TraversalAction = iota
	// ActionSkipChildren is accepted but acts like ActionContinue in
	// [Engine.Traverse]: the node's entities are visited and its resident
	// descendants are still visited in their turn, since the walk covers
	// resident nodes directly rather than descending from parent to child.
	ActionSkipChildren
	// ActionStop halts the entire traversal immediately.
	ActionStop
)

// Visitor receives callbacks during [Engine.Traverse]. Any nil callback is
// simply skipped.
type Visitor[K Key[K]] struct {
	OnEnterNode func(key K, n *Node[K]) TraversalAction
	OnEntity    func(key K, id EntityID) TraversalAction
	OnLeaveNode func(key K, n *Node[K])
}

// Traverse walks resident nodes in the requested strategy's order, calling
// v's callbacks. Only nodes actually present in the node map are visited;
// this is not a walk of the full virtual tree (see [cellsIntersecting] for
// that, used internally for spanning placement).
func (e *Engine[K]) Traverse(v Visitor[K], strategy TraversalStrategy) {
	entries := e.nodes.snapshot()

	switch strategy {
	case TraverseSFCOrder:
		// snapshot() is already in ascending Key.Compare (SFC) order.
	case TraverseLevelOrder, TraverseBFS:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].key.Level() != entries[j].key.Level() {
				return entries[i].key.Level() < entries[j].key.Level()
			}
			return entries[i].key.Compare(entries[j].key) < 0
		})
	case TraverseDFSPreOrder, TraverseDFSPostOrder:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].key.Compare(entries[j].key) < 0 })
	}

	if strategy == TraverseDFSPostOrder {
		for i := len(entries) - 1; i >= 0; i-- {
			if !e.visitOne(v, entries[i].key, entries[i].node, true) {
				return
			}
		}
		return
	}

	for _, entry := range entries {
		if !e.visitOne(v, entry.key, entry.node, false) {
			return
		}
	}
}

// visitOne runs the enter/entity/leave callbacks for one node, returning
// false if the traversal should stop entirely. ActionSkipChildren has no
// extra effect here beyond ActionContinue: this traversal walks resident
// nodes directly rather than descending a virtual tree, so there are no
// unvisited children to skip.
func (e *Engine[K]) visitOne(v Visitor[K], key K, n *Node[K], postOrder bool) bool {
	if v.OnEnterNode != nil && !postOrder {
		if v.OnEnterNode(key, n) == ActionStop {
			return false
		}
	}

	if v.OnEntity != nil {
		for _, id := range n.Entities() {
			if v.OnEntity(key, id) == ActionStop {
				return false
			}
		}
	}
	if v.OnLeaveNode != nil {
		v.OnLeaveNode(key, n)
	}
	return true
}
