// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/algorithms"
)

// CategoryRecommendation is the prediction for one category.
type CategoryRecommendation struct {
	Category   Category
	Label      string
	LabelIndex int
	Confidence float64

	// Probabilities is the leaf class distribution in label order.
	Probabilities []float64
}

// Result is the output of one inference call.
type Result struct {
	ClusterID            int
	SegmentDistance      float64
	FinancialHealthScore float64
	BundleVersion        int

	// Recommendations is indexed by Category.
	Recommendations [NumCategories]CategoryRecommendation
}

// For returns the recommendation for c.
func (r *Result) For(c Category) CategoryRecommendation {
	return r.Recommendations[c]
}

// Predict runs the inference pipeline for p against b. It performs no I/O
// and is safe for concurrent use on the same bundle.
func Predict(b *Bundle, p *features.Profile) (*Result, error) {
	if b == nil {
		return nil, ErrModelNotReady
	}
	if !b.Sealed() {
		return nil, fmt.Errorf("%w: bundle is not sealed", ErrModelNotReady)
	}

	vec := b.engineer.Derive(p)
	raw := vec.Slice()

	scaled, err := b.Scaler.Transform(raw)
	if err != nil {
		return nil, schemaError("scale features", err)
	}
	cluster, dist, err := b.Segments.Assign(scaled)
	if err != nil {
		return nil, schemaError("assign segment", err)
	}

	// Classifiers see the unscaled features plus the live segment id.
	input := make([]float64, len(raw)+1)
	copy(input, raw)
	input[len(raw)] = float64(cluster)

	res := &Result{
		ClusterID:            cluster,
		SegmentDistance:      dist,
		FinancialHealthScore: vec[features.FinancialHealthScore],
		BundleVersion:        b.Version,
	}
	for i := range b.Classifiers {
		m := &b.Classifiers[i]
		if m.Schema.Len() != len(input) {
			return nil, fmt.Errorf("%w: %s classifier expects %d features, got %d",
				ErrSchemaMismatch, m.Category, m.Schema.Len(), len(input))
		}
		class, probs, err := m.Tree.Predict(input)
		if err != nil {
			return nil, schemaError(m.Category.String()+" classifier", err)
		}
		if class < 0 || class >= len(m.Labels) {
			return nil, fmt.Errorf("%w: %s class %d outside label set", ErrSchemaMismatch, m.Category, class)
		}
		res.Recommendations[i] = CategoryRecommendation{
			Category:      m.Category,
			Label:         m.Labels[class],
			LabelIndex:    class,
			Confidence:    probs[class],
			Probabilities: probs,
		}
	}
	return res, nil
}

// schemaError maps dimension errors from the algorithms to ErrSchemaMismatch.
func schemaError(stage string, err error) error {
	if errors.Is(err, algorithms.ErrDimensionMismatch) {
		return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, stage, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
