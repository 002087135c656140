// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// BulkItem is one entity to load via [Engine.BulkLoad].
type BulkItem struct {
	ID      EntityID // nonzero: used as the entity's ID; zero: the engine generates one
	Point   Position
	Level   int
	Content any
	Bounds  *AABB
}

// BulkItemResult reports the outcome of loading one [BulkItem], preserving
// its original slice index so callers can reconcile results positionally
// even when loaded out of order under BulkParallel.
type BulkItemResult struct {
	Index int
	ID    EntityID
	Err   error
}

// BulkLoad ingests items with sort/batch/build/splice pipeline: items are
// sorted by encoded key for cell locality, split into batches of
// opts.BulkBatchSize, and each batch is inserted in order (or, when
// opts.BulkParallel is set, the items of a batch are inserted concurrently
// via golang.org/x/sync/errgroup, one goroutine per item with no limit
// beyond the batch size; batches still run one after another)
// (SPEC_FULL.md §4.10, §B). Subdivision is deferred for the whole
// batch and evaluated once per distinct touched key afterward, rather than
// once per item, so a batch landing 1000 entities in one cell pays for one
// rebalance pass instead of 1000 incremental ones. ctx cancellation is
// checked between batches and surfaces as [ErrCancelled] on any item not
// yet started.
func (e *Engine[K]) BulkLoad(ctx context.Context, items []BulkItem) []BulkItemResult {
	results := make([]BulkItemResult, len(items))
	touched := make([]K, len(items))
	touchedOK := make([]bool, len(items))

	type sortKey struct {
		idx int
		key K
		ok  bool
	}
	order := make([]sortKey, len(items))
	for i, it := range items {
		k, err := e.codec.Encode(it.Point, it.Level)
		order[i] = sortKey{idx: i, key: k, ok: err == nil}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if !order[i].ok || !order[j].ok {
			return order[i].ok && !order[j].ok
		}
		return order[i].key.Compare(order[j].key) < 0
	})

	batchSize := e.opts.BulkBatchSize
	if batchSize <= 0 {
		batchSize = len(items)
	}
	if batchSize == 0 {
		return results
	}

	loadOne := func(i int) error {
		it := items[i]
		id := it.ID
		gotID, key, err := e.insertDeferred(id, id != 0, it.Point, it.Level, it.Content, it.Bounds)
		results[i] = BulkItemResult{Index: i, ID: gotID, Err: err}
		if err == nil {
			touched[i] = key
			touchedOK[i] = true
		}
		return nil
	}

	cancelRest := func(from int) {
		for _, s := range order[from:] {
			results[s.idx] = BulkItemResult{Index: s.idx, Err: ErrCancelled}
		}
	}

	// settleBatch runs the deferred rebalance pass for everything the
	// batch touched, deduped by key so a cell holding many of the
	// batch's items is only checked once.
	settleBatch := func(batch []sortKey) {
		seen := make(map[string]K)
		for _, s := range batch {
			if !touchedOK[s.idx] {
				continue
			}
			k := touched[s.idx]
			seen[k.String()] = k
		}
		for _, k := range seen {
			e.evaluateSplit(k, k.Level())
		}
	}

	for batchStart := 0; batchStart < len(order); batchStart += batchSize {
		select {
		case <-ctx.Done():
			cancelRest(batchStart)
			return results
		default:
		}

		end := min(batchStart+batchSize, len(order))
		batch := order[batchStart:end]

		if e.opts.BulkParallel {
			g, _ := errgroup.WithContext(ctx)
			for _, s := range batch {
				i := s.idx
				g.Go(func() error { return loadOne(i) })
			}
			_ = g.Wait()
		} else {
			for j, s := range batch {
				if err := ctx.Err(); err != nil {
					cancelRest(batchStart + j)
					return results
				}
				_ = loadOne(s.idx)
			}
		}

		settleBatch(batch)
	}
	return results
}
