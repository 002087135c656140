// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Move relocates an existing entity to a new point (and, optionally, a new
// level; pass the entity's current level to keep it unchanged), following
// the four-phase lock-free protocol of SPEC_FULL.md §4.3:
//
//   - PREPARE: snapshot the current record and compute the destination key.
//   - INSERT:  add the entity reference at the destination node (idempotent
//     if the destination is unchanged).
//   - UPDATE:  publish a new immutable record via CAS against the snapshot
//     taken in PREPARE; on CAS failure, retry the whole protocol with
//     backoff, since a concurrent mutation changed the record.
//   - REMOVE:  drop the entity reference from every node the old record
//     pointed to that the new record does not.
//
// No phase holds the entity's record lock across another entity's
// operation: contention is resolved purely by retry, not blocking.
func (e *Engine[K]) Move(id EntityID, newPoint Position, newLevel int) error {
	if err := e.lifecycle.checkOperating(); err != nil {
		return err
	}
	if err := newPoint.Validate(); err != nil {
		return err
	}
	if err := e.validateLevel(newLevel); err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Microsecond
	b.MaxInterval = 5 * time.Millisecond
	b.MaxElapsedTime = 200 * time.Millisecond
	bo := backoff.WithMaxRetries(b, 64)

	op := func() error {
		ok, err := e.tryMove(id, newPoint, newLevel)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errMoveRetry
		}
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		if err == errMoveRetry {
			return ErrEntityConflict
		}
		return err
	}
	return nil
}

var errMoveRetry = newInternalError("Move", "concurrent update, retrying", nil)

// tryMove attempts one PREPARE/INSERT/UPDATE/REMOVE pass, returning
// (true, nil) on success and (false, nil) if a concurrent mutation raced it
// and the caller should retry.
func (e *Engine[K]) tryMove(id EntityID, newPoint Position, newLevel int) (bool, error) {
	// PREPARE
	oldRec, ok := e.entities.load(id)
	if !ok {
		return false, ErrEntityNotFound
	}
	destKey, err := e.encodeCached(newPoint, newLevel)
	if err != nil {
		return false, err
	}

	// INSERT: add references at the destination (and any new spanning
	// cells) before removing the old ones, so a concurrent reader never
	// observes the entity as absent from every cell.
	newTouched := e.placeReferences(destKey, newLevel, id, oldRec.bounds, oldRec)

	dynamics := oldRec.dynamics
	if dynamics == nil {
		dynamics = &Dynamics{}
	}
	d := dynamics.withPosition(newPoint)

	nextRec := &entityRecord{
		id:       oldRec.id,
		uuid:     oldRec.uuid,
		point:    newPoint,
		content:  oldRec.content,
		bounds:   oldRec.bounds,
		dynamics: &d,
		version:  oldRec.version + 1,
		nodeKeys: newTouched,
	}

	// UPDATE
	if !e.entities.cas(id, oldRec, nextRec) {
		// Lost the race: undo the speculative references we just added
		// for this attempt and let the caller retry against fresh state.
		e.releaseStaleRefs(id, newTouched, oldRec.nodeKeys)
		return false, nil
	}

	// REMOVE: drop references the old record held that the new one
	// doesn't (i.e. cells the entity has moved out of).
	e.releaseStaleRefs(id, oldRec.nodeKeys, newTouched)

	e.bumpVersion()
	e.evaluateSplit(destKey, newLevel)
	e.listeners.emit(MutationEvent{Kind: MutationUpdate, Entity: id, Point: newPoint})
	return true, nil
}

// releaseStaleRefs removes id's reference from every key in oldKeys that is
// not also present in keep.
func (e *Engine[K]) releaseStaleRefs(id EntityID, oldKeys []any, keep []any) {
	stillWanted := make(map[any]struct{}, len(keep))
	for _, k := range keep {
		stillWanted[k] = struct{}{}
	}
	for _, kAny := range oldKeys {
		if _, ok := stillWanted[kAny]; ok {
			continue
		}
		k := kAny.(K)
		if n, ok := e.nodes.get(k); ok {
			n.removeRef(id)
			e.evaluateMerge(k)
		}
	}
}
