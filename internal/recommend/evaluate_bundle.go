// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/finsegment/internal/recommend/algorithms"
)

// EvaluationReport scores a stored bundle against a labelled dataset.
type EvaluationReport struct {
	BundleVersion int               `json:"bundle_version"`
	EvaluatedAt   time.Time         `json:"evaluated_at"`
	TotalRows     int               `json:"total_rows"`
	UsedRows      int               `json:"used_rows"`
	DroppedRows   int               `json:"dropped_rows"`
	Clusters      ClusterMetrics    `json:"clusters"`
	Categories    []CategoryMetrics `json:"categories"`
}

// evalCheckEvery is how many rows are scored between context checks.
const evalCheckEvery = 256

// EvaluateBundle runs every valid row of src through the inference pipeline
// of b and scores the segments and the four classifiers. Invalid rows are
// skipped and counted. silhouetteSample caps the rows used for the
// silhouette score; 0 uses every row.
func EvaluateBundle(ctx context.Context, b *Bundle, src RowSource, silhouetteSample int) (*EvaluationReport, error) {
	if b == nil || !b.Sealed() {
		return nil, ErrModelNotReady
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load evaluation rows: %w", err)
	}

	report := &EvaluationReport{
		BundleVersion: b.Version,
		EvaluatedAt:   time.Now().UTC(),
		TotalRows:     len(rows),
	}

	scaled := make([][]float64, 0, len(rows))
	assignments := make([]int, 0, len(rows))
	yTrue := make([][]int, NumCategories)
	yPred := make([][]int, NumCategories)
	inertia := 0.0

	for i := range rows {
		if i%evalCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := &rows[i]
		if !row.Valid() {
			report.DroppedRows++
			continue
		}

		res, err := Predict(b, &row.Profile)
		if err != nil {
			return nil, fmt.Errorf("evaluate row %d: %w", i, err)
		}
		x, err := b.Scaler.Transform(b.engineer.Derive(&row.Profile).Slice())
		if err != nil {
			return nil, schemaError("scale features", err)
		}
		scaled = append(scaled, x)
		assignments = append(assignments, res.ClusterID)
		inertia += res.SegmentDistance * res.SegmentDistance

		for c := range NumCategories {
			yTrue[c] = append(yTrue[c], row.Labels[c])
			yPred[c] = append(yPred[c], res.Recommendations[c].LabelIndex)
		}
	}

	report.UsedRows = len(scaled)
	if report.UsedRows == 0 {
		return nil, fmt.Errorf("%w: no usable rows out of %d", ErrTrainingData, report.TotalRows)
	}

	k := b.Segments.K()
	report.Clusters = ClusterMetrics{
		K:                k,
		Inertia:          inertia,
		Silhouette:       algorithms.SampledSilhouette(scaled, assignments, k, silhouetteSample, b.Seed),
		DaviesBouldin:    algorithms.DaviesBouldin(scaled, assignments, b.Segments.Centroids),
		CalinskiHarabasz: algorithms.CalinskiHarabasz(scaled, assignments, b.Segments.Centroids),
		Sizes:            algorithms.ClusterSizes(assignments, k),
	}

	report.Categories = make([]CategoryMetrics, NumCategories)
	for i, cat := range Categories {
		m, err := EvaluateCategory(cat, yTrue[i], yPred[i])
		if err != nil {
			return nil, err
		}
		report.Categories[i] = m
	}
	return report, nil
}
