// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package recommend segments bank customers and recommends one product per
// category.
//
// # Architecture
//
// A trained model is a Bundle: a standard scaler, K-Means centroids and four
// CART classifiers (account, savings, loan, digital_service). The classifiers
// take the engineered features plus the customer's segment id. Bundles are
// versioned as one unit and never mixed.
//
//   - Trainer: load rows, drop invalid ones, derive features, fit the scaler
//     and K-Means on every row, fit the four classifiers concurrently on a
//     seeded training split, and score them on the held-out split.
//   - Predict: derive, scale, assign the nearest centroid, append the cluster
//     id and walk each tree. Pure computation with no I/O.
//   - Handle: an atomic pointer to the bundle being served. Reloads replace
//     the pointer; readers never observe a partially updated bundle.
//   - Engine: serializes training, persists bundles through a BundleStore,
//     records reports and publishes new versions.
//
// # Determinism
//
// Training with the same seed, configuration and rows produces an identical
// bundle. Ties resolve to the lowest index: the lowest centroid index during
// assignment and the first declared label for a majority vote.
//
// # Errors
//
//   - ErrModelNotReady: no bundle loaded
//   - ErrSchemaMismatch: bundle or vector does not match the feature schema
//   - ErrTrainingData: dataset empty, too many invalid rows, or too small
//   - ErrTrainingInProgress: another run holds the training lock
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetStore(store)
//
//	report, err := engine.Train(ctx, loader)
//	res, err := engine.Recommend(ctx, &profile)
//	fmt.Println(res.ClusterID, res.For(recommend.CategorySavings).Label)
package recommend
