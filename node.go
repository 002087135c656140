// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"sync/atomic"

	"github.com/lucien3d/lucien/internal/entityset"
)

// nodeState is the per-node balancing state machine of SPEC_FULL.md §4.4:
// STABLE -> SPLITTING -> STABLE, STABLE -> MERGING -> STABLE.
type nodeState int32

const (
	stateStable nodeState = iota
	stateSplitting
	stateMerging
)

// OcclusionMetadata is optional per-node bookkeeping for a renderer-side
// occlusion culler (DSOC). The core never writes meaningful values into it
// beyond zeroing; it exists so a DSOC collaborator has somewhere to persist
// per-cell state without the core needing to know its shape.
type OcclusionMetadata struct {
	Opaque   bool
	LastSeen uint64
}

// Node is one resident cell of the node map, identified by its key
// (SPEC_FULL.md §3 "Node"). It is created lazily on first insertion and
// removed when it becomes empty, subject to the merge policy.
type Node[K Key[K]] struct {
	key       K
	entities  *entityset.Set
	version   atomic.Uint64
	state     atomic.Int32
	occlusion atomic.Pointer[OcclusionMetadata]
}

func newNode[K Key[K]](key K) *Node[K] {
	n := &Node[K]{key: key, entities: entityset.New()}
	n.state.Store(int32(stateStable))
	return n
}

// Key returns the node's identifying key.
func (n *Node[K]) Key() K { return n.key }

// Len reports how many entity references this node holds.
func (n *Node[K]) Len() int { return n.entities.Len() }

// Empty reports whether the node holds no entity references.
func (n *Node[K]) Empty() bool { return n.entities.Empty() }

// Entities returns a snapshot slice of resident entity IDs.
func (n *Node[K]) Entities() []EntityID {
	raw := n.entities.ToSlice()
	out := make([]EntityID, len(raw))
	for i, v := range raw {
		out[i] = EntityID(v)
	}
	return out
}

func (n *Node[K]) addRef(id EntityID) bool {
	added := n.entities.Add(uint64(id))
	if added {
		n.version.Add(1)
	}
	return added
}

func (n *Node[K]) removeRef(id EntityID) bool {
	removed := n.entities.Remove(uint64(id))
	if removed {
		n.version.Add(1)
	}
	return removed
}

func (n *Node[K]) hasRef(id EntityID) bool { return n.entities.Contains(uint64(id)) }

func (n *Node[K]) State() nodeState { return nodeState(n.state.Load()) }

func (n *Node[K]) setState(s nodeState) { n.state.Store(int32(s)) }

// casState transitions the node's balancing state, succeeding only if it
// currently holds from.
func (n *Node[K]) casState(from, to nodeState) bool {
	return n.state.CompareAndSwap(int32(from), int32(to))
}

// Occlusion returns the current occlusion metadata, or nil if unset.
func (n *Node[K]) Occlusion() *OcclusionMetadata { return n.occlusion.Load() }

// SetOcclusion stores occlusion metadata for DSOC-style collaborators.
func (n *Node[K]) SetOcclusion(m *OcclusionMetadata) { n.occlusion.Store(m) }
