// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"fmt"
	"math"
)

// constantScaleTolerance treats a column as constant when its standard
// deviation is this small relative to its mean.
const constantScaleTolerance = 1e-12

// Scaler holds fitted standardization parameters, one (mean, scale) pair per
// feature in the order the scaler was fitted with.
type Scaler struct {
	Means  []float64
	Scales []float64
}

// FitScaler computes the per-column mean and population standard deviation
// of rows. Columns whose deviation is zero get a scale of 1.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit scaler: %w: no rows", ErrInsufficientData)
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, fmt.Errorf("fit scaler: %w: rows have no columns", ErrInsufficientData)
	}
	if err := checkDim(rows, dim); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	n := float64(len(rows))
	means := make([]float64, dim)
	for _, r := range rows {
		for j, v := range r {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	scales := make([]float64, dim)
	for _, r := range rows {
		for j, v := range r {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		std := math.Sqrt(scales[j] / n)
		if math.IsNaN(std) || std <= constantScaleTolerance*math.Max(1, math.Abs(means[j])) {
			std = 1
		}
		scales[j] = std
	}

	return &Scaler{Means: means, Scales: scales}, nil
}

// Dim returns the number of features the scaler was fitted with.
func (s *Scaler) Dim() int { return len(s.Means) }

// Transform returns (x-mean)/scale elementwise in a new slice.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, got %d", ErrDimensionMismatch, len(s.Means), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

// TransformAll applies Transform to every row.
func (s *Scaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		t, err := s.Transform(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
