// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/algorithms"
)

// BundleName is the storage name bundles are persisted under.
const BundleName = "bundle"

// ClusterFeature is the trailing classifier input holding the segment id.
const ClusterFeature = "cluster_id"

// CategoryModel is the classifier for one category together with the label
// set and input schema it was trained on.
type CategoryModel struct {
	Category Category
	Labels   []string
	Schema   features.Schema
	Tree     algorithms.Tree
}

// Bundle is the atomic, versioned set of fitted artifacts needed to serve a
// prediction. A bundle is never mutated after Seal.
type Bundle struct {
	Version   int
	TrainedAt time.Time
	Seed      int64

	// Schema is the feature schema the scaler and centroids were fitted on.
	Schema features.Schema

	// Weights are the health score weights used during training; serving
	// derives features with the same weights.
	Weights features.Weights

	Scaler      algorithms.Scaler
	Segments    algorithms.KMeansModel
	Classifiers []CategoryModel

	engineer *features.Engineer
}

// Seal validates the bundle against the schema this binary produces and
// prepares it for serving. Predictions require a sealed bundle.
func (b *Bundle) Seal() error {
	if err := b.validate(features.CurrentSchema()); err != nil {
		return err
	}
	eng, err := features.NewEngineer(b.Weights)
	if err != nil {
		return fmt.Errorf("%w: bundle weights: %v", ErrSchemaMismatch, err)
	}
	b.engineer = eng
	return nil
}

// Sealed reports whether Seal succeeded on b.
func (b *Bundle) Sealed() bool {
	return b != nil && b.engineer != nil
}

// WithVersion returns a copy of b numbered v. The fitted artifacts are
// shared, b itself is unchanged.
func (b *Bundle) WithVersion(v int) *Bundle {
	c := *b
	c.Version = v
	return &c
}

func (b *Bundle) validate(want features.Schema) error {
	if !b.Schema.Equal(want) {
		return fmt.Errorf("%w: bundle schema v%d with %d features, expected v%d with %d",
			ErrSchemaMismatch, b.Schema.Version, b.Schema.Len(), want.Version, want.Len())
	}
	dim := want.Len()
	if b.Scaler.Dim() != dim || len(b.Scaler.Scales) != dim {
		return fmt.Errorf("%w: scaler has %d features, expected %d", ErrSchemaMismatch, b.Scaler.Dim(), dim)
	}
	if b.Segments.K() == 0 {
		return fmt.Errorf("%w: bundle has no centroids", ErrSchemaMismatch)
	}
	for i, c := range b.Segments.Centroids {
		if len(c) != dim {
			return fmt.Errorf("%w: centroid %d has %d features, expected %d", ErrSchemaMismatch, i, len(c), dim)
		}
	}

	if len(b.Classifiers) != NumCategories {
		return fmt.Errorf("%w: bundle has %d classifiers, expected %d", ErrSchemaMismatch, len(b.Classifiers), NumCategories)
	}
	classifierSchema := want.With(ClusterFeature)
	for i := range b.Classifiers {
		m := &b.Classifiers[i]
		cat := Categories[i]
		if m.Category != cat {
			return fmt.Errorf("%w: classifier %d is for %s, expected %s", ErrSchemaMismatch, i, m.Category, cat)
		}
		if !slices.Equal(m.Labels, cat.Labels()) {
			return fmt.Errorf("%w: %s labels do not match the product catalog", ErrSchemaMismatch, cat)
		}
		if !m.Schema.Equal(classifierSchema) {
			return fmt.Errorf("%w: %s classifier schema has %d features, expected %d",
				ErrSchemaMismatch, cat, m.Schema.Len(), classifierSchema.Len())
		}
		if m.Tree.NumFeatures() != classifierSchema.Len() || m.Tree.NumClasses() != len(m.Labels) {
			return fmt.Errorf("%w: %s tree shape %dx%d, expected %dx%d", ErrSchemaMismatch, cat,
				m.Tree.NumFeatures(), m.Tree.NumClasses(), classifierSchema.Len(), len(m.Labels))
		}
		if len(m.Tree.Nodes) == 0 {
			return fmt.Errorf("%w: %s tree has no nodes", ErrSchemaMismatch, cat)
		}
	}
	return nil
}

// BundleInfo summarizes a bundle for status endpoints.
type BundleInfo struct {
	Version       int       `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
	Seed          int64     `json:"seed"`
	SchemaVersion int       `json:"schema_version"`
	Features      []string  `json:"features"`
	Clusters      int       `json:"clusters"`
	TreeDepths    []int     `json:"tree_depths"`
}

// Info returns a summary of b.
func (b *Bundle) Info() BundleInfo {
	depths := make([]int, len(b.Classifiers))
	for i := range b.Classifiers {
		depths[i] = b.Classifiers[i].Tree.Depth()
	}
	return BundleInfo{
		Version:       b.Version,
		TrainedAt:     b.TrainedAt,
		Seed:          b.Seed,
		SchemaVersion: b.Schema.Version,
		Features:      append([]string(nil), b.Schema.Names...),
		Clusters:      b.Segments.K(),
		TreeDepths:    depths,
	}
}

// Handle holds the bundle a serving process predicts with. Readers always see
// either the previous or the next bundle in full.
type Handle struct {
	current atomic.Pointer[Bundle]
}

// NewHandle returns an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Load returns the current bundle, or nil when none is loaded.
func (h *Handle) Load() *Bundle {
	return h.current.Load()
}

// Ready reports whether a bundle is loaded.
func (h *Handle) Ready() bool {
	return h.current.Load() != nil
}

// Swap installs b and returns the previous bundle. b must be sealed.
func (h *Handle) Swap(b *Bundle) (*Bundle, error) {
	if !b.Sealed() {
		return nil, fmt.Errorf("%w: bundle is not sealed", ErrModelNotReady)
	}
	return h.current.Swap(b), nil
}

// SwapIfNewer installs b only when it is newer than the current bundle.
// It reports whether b was installed.
func (h *Handle) SwapIfNewer(b *Bundle) (bool, error) {
	if !b.Sealed() {
		return false, fmt.Errorf("%w: bundle is not sealed", ErrModelNotReady)
	}
	for {
		cur := h.current.Load()
		if cur != nil && cur.Version >= b.Version {
			return false, nil
		}
		if h.current.CompareAndSwap(cur, b) {
			return true, nil
		}
	}
}
