// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"testing"

	"github.com/lucien3d/lucien/octree"
)

func TestGhostStoreLifecycle(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	codec := octree.NewCodec()
	k, err := codec.Encode(Position{X: 500, Y: 500, Z: 500}, 10)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	g := e.Ghosts()
	if _, ok := g.LookupGhost(k); ok {
		t.Fatal("LookupGhost found an entry before any AddGhost")
	}

	g.AddGhost(k, []byte("remote-payload"))
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	got, ok := g.LookupGhost(k)
	if !ok || string(got) != "remote-payload" {
		t.Fatalf("LookupGhost = (%q, %v), want (remote-payload, true)", got, ok)
	}

	count := 0
	for gotKey, payload := range g.Ghosts() {
		if gotKey.Compare(k) != 0 || string(payload) != "remote-payload" {
			t.Fatalf("Ghosts() yielded unexpected (%v, %q)", gotKey, payload)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("Ghosts() yielded %d entries, want 1", count)
	}

	if !g.RemoveGhost(k) {
		t.Fatal("RemoveGhost reported false for an existing entry")
	}
	if g.Len() != 0 {
		t.Fatalf("Len() after RemoveGhost = %d, want 0", g.Len())
	}
	if g.RemoveGhost(k) {
		t.Fatal("RemoveGhost reported true for an already-removed entry")
	}
}
