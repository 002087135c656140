// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"math/rand"
	"testing"
)

func TestStatisticsMatchesEntityCount(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	rng := rand.New(rand.NewSource(9))
	const n = 300
	for i := 0; i < n; i++ {
		p := Position{
			X: rng.Float64() * (MaxCoord - 1),
			Y: rng.Float64() * (MaxCoord - 1),
			Z: rng.Float64() * (MaxCoord - 1),
		}
		if _, err := e.Insert(p, 12, nil, nil); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	stats := e.Statistics()
	if stats.EntityCount != n {
		t.Fatalf("Statistics.EntityCount = %d, want %d", stats.EntityCount, n)
	}
	if stats.NodeCount != e.NodeCount() {
		t.Fatalf("Statistics.NodeCount = %d, want %d", stats.NodeCount, e.NodeCount())
	}
	var summed int
	for _, ls := range stats.PerLevel {
		summed += ls.EntityTotal
	}
	if summed != n {
		t.Fatalf("sum of PerLevel.EntityTotal = %d, want %d", summed, n)
	}
}

func TestValidateClean(t *testing.T) {
	t.Parallel()

	e := NewOctree(DefaultOptions())
	defer e.Shutdown()

	for i := 0; i < 50; i++ {
		p := Position{X: float64(i * 100), Y: float64(i * 50), Z: float64(i * 25)}
		if _, err := e.Insert(p, 10, nil, nil); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateAfterMovesAndRemoves(t *testing.T) {
	t.Parallel()

	e := NewTetree(DefaultOptions())
	defer e.Shutdown()

	ids := make([]EntityID, 0, 50)
	for i := 0; i < 50; i++ {
		p := Position{X: float64(i * 200), Y: float64(i * 90), Z: float64(i * 40)}
		id, err := e.Insert(p, 12, nil, nil)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		if i%2 == 0 {
			if err := e.Move(id, Position{X: float64(i * 300), Y: float64(i * 10), Z: float64(i * 5)}, 12); err != nil {
				t.Fatalf("Move: %v", err)
			}
		}
		if i%7 == 0 {
			if err := e.Remove(id); err != nil {
				t.Fatalf("Remove: %v", err)
			}
		}
	}

	if err := e.Validate(); err != nil {
		t.Fatalf("Validate after moves/removes: %v", err)
	}
}
