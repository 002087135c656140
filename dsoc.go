// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

package lucien

import "sync/atomic"

// DSOCHook is the shape of the renderer-side occlusion-culling
// collaborator's configuration hook (SPEC_FULL.md §5 "Auto-disable
// protection... a policy the core exposes as a configuration hook, not
// something it implements", §D). The core never culls anything itself. The
// engine stores an installed hook (see [Engine.SetDSOCHook]) but no query
// path calls ReportOverhead or Enabled; the engine takes no overhead
// measurements of its own.
type DSOCHook interface {
	// ReportOverhead receives the fraction of total query time the hook's
	// own instrumentation consumed.
	ReportOverhead(ratio float64)

	// Enabled reports whether the hook is currently active.
	Enabled() bool
}

// NullDSOCHook is always disabled and ignores overhead reports; it is the
// default when no hook is registered.
type NullDSOCHook struct{}

func (NullDSOCHook) ReportOverhead(float64) {}
func (NullDSOCHook) Enabled() bool          { return false }

// ThresholdDSOCHook auto-disables once reported overhead exceeds Threshold
// (a fraction of baseline query cost), matching the 20% figure in
// SPEC_FULL.md §5. It is a reference implementation of the hook shape, not
// part of the occlusion-culling collaborator itself.
type ThresholdDSOCHook struct {
	Threshold float64
	enabled   atomic.Bool
}

// NewThresholdDSOCHook returns a hook enabled by default with the given
// auto-disable threshold.
func NewThresholdDSOCHook(threshold float64) *ThresholdDSOCHook {
	h := &ThresholdDSOCHook{Threshold: threshold}
	h.enabled.Store(true)
	return h
}

func (h *ThresholdDSOCHook) ReportOverhead(ratio float64) {
	if ratio > h.Threshold {
		h.enabled.Store(false)
	}
}

func (h *ThresholdDSOCHook) Enabled() bool { return h.enabled.Load() }
