// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import "errors"

var (
	// ErrSchemaMismatch is returned when a feature vector or a loaded bundle
	// does not match the schema the serving code expects. It indicates a
	// deployment or programming error, not bad user input.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrModelNotReady is returned when no bundle has been loaded.
	ErrModelNotReady = errors.New("model not ready")

	// ErrTrainingData is returned when the training dataset is unusable.
	ErrTrainingData = errors.New("invalid training data")

	// ErrTrainingInProgress is returned when a training run is requested
	// while another one is still running.
	ErrTrainingInProgress = errors.New("training already in progress")
)
