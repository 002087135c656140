// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// EntityID identifies an entity for the lifetime of its residency in an
// engine. It is immutable once assigned (SPEC_FULL.md §3 "Identity... a
// variant-generated unique ID (numeric or UUID), immutable for the
// entity's lifetime"). Both ID generation modes produce a uint64: sequential
// mode is the counter value itself, UUID mode is derived from a generated
// [uuid.UUID], which is preserved verbatim in the record for display.
type EntityID uint64

func (id EntityID) String() string { return fmt.Sprintf("entity(%d)", uint64(id)) }

// IDGenerator produces fresh, unique [EntityID]s. Implementations must be
// safe for concurrent use.
type IDGenerator interface {
	Next() (EntityID, uuid.UUID)
}

// SequentialIDGenerator hands out densely increasing IDs starting at 1 (0
// is reserved to mean "no entity").
type SequentialIDGenerator struct {
	counter atomic.Uint64
}

// NewSequentialIDGenerator returns a ready-to-use generator.
func NewSequentialIDGenerator() *SequentialIDGenerator { return &SequentialIDGenerator{} }

func (g *SequentialIDGenerator) Next() (EntityID, uuid.UUID) {
	return EntityID(g.counter.Add(1)), uuid.Nil
}

// UUIDIDGenerator derives entity IDs from random UUIDs (google/uuid,
// SPEC_FULL.md §B). The full UUID is kept on the record; the EntityID is a
// 64-bit projection (the UUID's low 8 bytes) used as the roaring-bitmap
// membership key and node-map reference.
type UUIDIDGenerator struct{}

// NewUUIDIDGenerator returns a ready-to-use generator.
func NewUUIDIDGenerator() *UUIDIDGenerator { return &UUIDIDGenerator{} }

func (g *UUIDIDGenerator) Next() (EntityID, uuid.UUID) {
	u := uuid.New()
	var low uint64
	for _, b := range u[8:] {
		low = low<<8 | uint64(b)
	}
	return EntityID(low), u
}

// Dynamics holds an entity's velocity/acceleration and a bounded movement
// history, consumed by the mover and exposed to DSOC-style hooks
// (SPEC_FULL.md §3, §9).
type Dynamics struct {
	Velocity     Position
	Acceleration Position
	History      []Position // most recent last; bounded by historyCap
}

const historyCap = 8

func (d Dynamics) withPosition(p Position) Dynamics {
	h := make([]Position, 0, min(len(d.History)+1, historyCap))
	start := 0
	if len(d.History)+1 > historyCap {
		start = len(d.History) + 1 - historyCap
	}
	h = append(h, d.History[start:]...)
	h = append(h, p)
	d.History = h
	return d
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// entityRecord is the copy-on-write value published for one entity.
// SPEC_FULL.md §4.3: "a new immutable record with version+1 is published
// atomically; concurrent readers observe either the old or the new, never
// a torn state." Records are never mutated in place.
type entityRecord struct {
	id       EntityID
	uuid     uuid.UUID
	point    Position
	content  any
	bounds   *AABB
	dynamics *Dynamics
	version  uint64
	nodeKeys []any // node-map keys this entity is referenced from (spanning-aware)
}

// entityManager owns entity records by ID, arena-style (SPEC_FULL.md §9:
// "arena + index... nodes hold entity IDs (not pointers); the entity
// manager owns records by ID. No cyclic ownership").
type entityManager struct {
	mu      sync.RWMutex // guards the map itself, not the CAS'd record pointers
	records map[EntityID]*atomic.Pointer[entityRecord]
	gen     IDGenerator
}

func newEntityManager(gen IDGenerator) *entityManager {
	return &entityManager{
		records: make(map[EntityID]*atomic.Pointer[entityRecord]),
		gen:     gen,
	}
}

func (m *entityManager) nextID() (EntityID, uuid.UUID) { return m.gen.Next() }

func (m *entityManager) load(id EntityID) (*entityRecord, bool) {
	m.mu.RLock()
	slot, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return slot.Load(), true
}

func (m *entityManager) store(rec *entityRecord) {
	m.mu.Lock()
	slot, ok := m.records[rec.id]
	if !ok {
		slot = &atomic.Pointer[entityRecord]{}
		m.records[rec.id] = slot
	}
	m.mu.Unlock()
	slot.Store(rec)
}

// cas publishes next in place of current for id, succeeding only if the
// slot still holds current. Used by the mover's UPDATE phase.
func (m *entityManager) cas(id EntityID, current, next *entityRecord) bool {
	m.mu.RLock()
	slot, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return slot.CompareAndSwap(current, next)
}

func (m *entityManager) delete(id EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

func (m *entityManager) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// rangeAll calls fn for a snapshot of every resident record, stopping early
// if fn returns false. Used by Validate/Statistics; not on any hot path.
func (m *entityManager) rangeAll(fn func(EntityID, *entityRecord) bool) {
	m.mu.RLock()
	slots := make([]*atomic.Pointer[entityRecord], 0, len(m.records))
	ids := make([]EntityID, 0, len(m.records))
	for id, s := range m.records {
		ids = append(ids, id)
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	for i, id := range ids {
		if rec := slots[i].Load(); rec != nil {
			if !fn(id, rec) {
				return
			}
		}
	}
}

// SpanningPolicy controls how bounded entities are placed into nodes whose
// cells their bounds cross (SPEC_FULL.md §4.3).
type SpanningPolicy int

const (
	// SpanningNone ignores bounds for placement: the entity lives in
	// exactly the node its Position encodes to.
	SpanningNone SpanningPolicy = iota
	// SpanningStrict places a reference in every cell the bounds
	// genuinely intersect.
	SpanningStrict
	// SpanningAABBApprox conservatively over-approximates by cell,
	// trading a few false-positive references for cheaper placement.
	SpanningAABBApprox
)

func (p SpanningPolicy) String() string {
	switch p {
	case SpanningNone:
		return "none"
	case SpanningStrict:
		return "strict"
	case SpanningAABBApprox:
		return "aabb_approx"
	default:
		return "unknown"
	}
}
