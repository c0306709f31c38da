// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when a vector does not have the
	// dimension an artifact was fitted with.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInsufficientData is returned when there are too few rows to fit.
	ErrInsufficientData = errors.New("insufficient data")
)

// Segmenter assigns a scaled feature vector to a segment.
type Segmenter interface {
	// Assign returns the nearest segment and the Euclidean distance to its centroid.
	Assign(x []float64) (int, float64, error)
	// K returns the number of segments.
	K() int
	// Dim returns the expected vector dimension.
	Dim() int
}

// Classifier predicts a class and the class probability distribution.
type Classifier interface {
	Predict(x []float64) (int, []float64, error)
	NumClasses() int
	NumFeatures() int
}

var (
	_ Segmenter  = (*KMeansModel)(nil)
	_ Classifier = (*Tree)(nil)
)

// ContextCancelled reports whether ctx is done without blocking.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// checkDim validates that every row has exactly dim columns.
func checkDim(rows [][]float64, dim int) error {
	for i, r := range rows {
		if len(r) != dim {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(r), dim)
		}
	}
	return nil
}

// squaredDistance returns the squared Euclidean distance between a and b.
// Callers guarantee equal length.
func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
