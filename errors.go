// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the public API. Callers should use
// [errors.Is] to test for them; none of these are ever panicked.
var (
	// ErrOutOfDomain is returned when a coordinate violates [0, 2^21)^3.
	ErrOutOfDomain = errors.New("lucien: coordinate out of domain")

	// ErrInvalidLevel is returned when a level is not in [0, 21] or
	// exceeds the engine's configured max level.
	ErrInvalidLevel = errors.New("lucien: invalid level")

	// ErrInvalidType is returned by [Create] for an unknown variant name.
	// No tetree operation returns it; tetree.Key.Valid reports the type
	// validity rule (the root is type 0, and a non-root key's type equals
	// the type derived from its coordinates via the transition table) as
	// a bool.
	ErrInvalidType = errors.New("lucien: invalid tetrahedron type")

	// ErrEntityNotFound is returned by Update/Remove/Lookup on an
	// unknown entity ID.
	ErrEntityNotFound = errors.New("lucien: entity not found")

	// ErrEntityConflict is returned by the mover when CAS retries are
	// exhausted racing a concurrent update of the same entity.
	ErrEntityConflict = errors.New("lucien: entity update conflict")

	// ErrCancelled is returned by bulk operations when the caller's
	// cancellation token is observed between batches.
	ErrCancelled = errors.New("lucien: operation cancelled")

	// ErrInternal signals an invariant violation. It should never occur;
	// when it does, Unwrap carries diagnostic context.
	ErrInternal = errors.New("lucien: internal invariant violation")

	// ErrClosed is returned by any operation on an engine that has
	// entered its closing state.
	ErrClosed = errors.New("lucien: engine is closed")
)

// InternalError wraps [ErrInternal] with diagnostic context describing
// which invariant failed and where.
type InternalError struct {
	Op      string
	Detail  string
	Wrapped error
}

func (e *InternalError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("lucien: internal invariant violation in %s: %s: %v", e.Op, e.Detail, e.Wrapped)
	}
	return fmt.Sprintf("lucien: internal invariant violation in %s: %s", e.Op, e.Detail)
}

func (e *InternalError) Unwrap() error {
	if e.Wrapped != nil {
		return errors.Join(ErrInternal, e.Wrapped)
	}
	return ErrInternal
}

func newInternalError(op, detail string, wrapped error) error {
	return &InternalError{Op: op, Detail: detail, Wrapped: wrapped}
}
