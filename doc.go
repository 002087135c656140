// Copyright (c) 2025 The Lucien Authors
// SPDX-License-Identifier: MIT

// Package lucien provides a multi-variant 3D spatial index.
//
// Lucien indexes point-and-bounded entities in a half-open cubic domain
// [0, 2^21)^3 and supports insertion, removal, update, k-nearest-neighbor,
// axis-aligned range, ray, frustum and plane queries, collision detection,
// and bulk loading.
//
// Three variants share one abstract engine through the generic [Key]
// contract:
//
//   - Octree: cubic, Morton-curve keyed, O(1) key derivation (package octree).
//   - Tetree: tetrahedral S0-S5 subdivision, TM-SFC keyed, O(level) key
//     derivation (package tetree).
//   - Prism: anisotropic (triangular base x linear height), composite keyed
//     (package prism).
//
// All three variants are parameterizations of the same [Engine]: the node
// map, entity manager, subdivision state machine, query algorithms, bulk
// loader, lock-free mover and k-NN cache are written once, generic over the
// key type. Concrete variants only supply key encode/decode, parent/child,
// containment and neighbor-finding.
//
// The zero value of [Options] is not ready to use; construct an engine with
// [NewOctree], [NewTetree], [NewPrism] or [Create].
package lucien
