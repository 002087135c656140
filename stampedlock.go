// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"sync"
	"sync/atomic"
)

// stampedLock is a lock supporting optimistic reads (SPEC_FULL.md §5, §C).
// Its shared/exclusive part is a sync.RWMutex, so it is not
// reader-preferring: a goroutine waiting in Lock blocks new RLock callers. It has no direct analog in the retrieved pack
// (justified in DESIGN.md); it is built directly on sync/atomic and
// sync.RWMutex, grounded on the teacher's own atomic-counter bookkeeping
// (pool.go) and the atomic.Pointer read path demonstrated in
// example_concurrent_test.go.
//
// Protocol:
//   - TryOptimisticRead returns the current stamp without blocking.
//   - Validate reports whether no exclusive section has completed since
//     the stamp was taken; on false the caller must retry with RLock.
//   - RLock/RUnlock acquire a true shared lock (used as the optimistic-read
//     fallback, and directly for operations too long to retry cheaply).
//   - Lock/Unlock acquire the exclusive (structural-writer) lock.
//
// The stamp is a monotonically increasing counter: even values mean "no
// writer in progress", and every Lock call bumps it to an odd value on
// entry and an even value on exit. TryOptimisticRead refuses to hand out an
// odd (writer-in-progress) stamp, spinning briefly onto the RWMutex's
// read-path instead, so optimistic readers never observe a torn state.
type stampedLock struct {
	stamp atomic.Uint64
	mu    sync.RWMutex
}

// TryOptimisticRead returns a stamp for later validation. Zero is never a
// valid stamp from a writer's perspective but is still validated correctly
// by Validate.
func (l *stampedLock) TryOptimisticRead() uint64 {
	for {
		s := l.stamp.Load()
		if s&1 == 0 {
			return s
		}
		// A writer is in the exclusive section; fall back to blocking
		// briefly on the shared lock so we don't spin through it.
		l.mu.RLock()
		s = l.stamp.Load()
		l.mu.RUnlock()
		return s
	}
}

// Validate reports whether the structural map has not been written to
// since stamp was taken.
func (l *stampedLock) Validate(stamp uint64) bool {
	return l.stamp.Load() == stamp
}

// RLock acquires the lock in shared mode.
func (l *stampedLock) RLock() { l.mu.RLock() }

// RUnlock releases a shared-mode acquisition.
func (l *stampedLock) RUnlock() { l.mu.RUnlock() }

// Lock acquires the lock in exclusive mode, for structural writers (node
// create/destroy, split/merge, bulk splice).
func (l *stampedLock) Lock() {
	l.mu.Lock()
	l.stamp.Add(1) // now odd: writer in progress
}

// Unlock releases an exclusive-mode acquisition.
func (l *stampedLock) Unlock() {
	l.stamp.Add(1) // now even: writer done
	l.mu.Unlock()
}
