// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package algorithms implements the model families behind customer
// segmentation and product classification.
//
// # Model Families
//
// Normalization:
//   - Scaler: per-feature standardization (x-mean)/scale, scale 1 for constant columns
//
// Segmentation:
//   - KMeans: Lloyd's algorithm seeded with k-means++, best of N restarts by inertia
//   - Silhouette, DaviesBouldin, CalinskiHarabasz: cluster quality reporting
//
// Classification:
//   - Tree: CART decision tree with Gini impurity, stored as a node arena
//
// # Fitted Artifacts
//
// Every Fit function returns a new immutable value (Scaler, KMeansModel,
// Tree). Fitted values are never mutated afterwards, so a single instance can
// be shared by any number of concurrent predictions without locking. All
// exported fields are plain data and round-trip through encoding/gob.
//
// # Determinism
//
// Randomness comes only from a math/rand source seeded by the caller. Given
// the same input rows in the same order and the same seed, fitting produces
// bit-identical artifacts.
package algorithms
