// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"iter"
	"sort"
	"sync"
)

// GhostStore holds remote-owned cell payloads keyed by spatial key
// (SPEC_FULL.md §4.9, §D). It is a separate map from the node map and does
// not participate in subdivision; forest/ghost distribution is an external
// collaborator, this is only the interface the core exposes to it.
type GhostStore[K Key[K]] struct {
	mu      sync.RWMutex
	payload map[string][]byte
	keys    map[string]K
}

func newGhostStore[K Key[K]]() *GhostStore[K] {
	return &GhostStore[K]{
		payload: make(map[string][]byte),
		keys:    make(map[string]K),
	}
}

// AddGhost stores payload for the remote-owned cell key, overwriting any
// prior payload.
func (g *GhostStore[K]) AddGhost(key K, payload []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := key.String()
	g.payload[k] = payload
	g.keys[k] = key
}

// LookupGhost returns the payload stored for key, if any.
func (g *GhostStore[K]) LookupGhost(key K) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.payload[key.String()]
	return p, ok
}

// RemoveGhost deletes the ghost entry for key, reporting whether it was
// present. Supplemented beyond the distilled spec's add/lookup pair
// (SPEC_FULL.md §D) because a real ghost-layer lifecycle must retract
// stale remote cells as ownership repartitions.
func (g *GhostStore[K]) RemoveGhost(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := key.String()
	if _, ok := g.payload[k]; !ok {
		return false
	}
	delete(g.payload, k)
	delete(g.keys, k)
	return true
}

// Ghosts iterates every resident ghost entry in ascending key order.
func (g *GhostStore[K]) Ghosts() iter.Seq2[K, []byte] {
	return func(yield func(K, []byte) bool) {
		g.mu.RLock()
		type kv struct {
			k K
			v []byte
		}
		all := make([]kv, 0, len(g.keys))
		for sk, k := range g.keys {
			all = append(all, kv{k, g.payload[sk]})
		}
		g.mu.RUnlock()

		sort.Slice(all, func(i, j int) bool { return all[i].k.Compare(all[j].k) < 0 })
		for _, e := range all {
			if !yield(e.k, e.v) {
				return
			}
		}
	}
}

// Len returns the number of resident ghost entries.
func (g *GhostStore[K]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.payload)
}
