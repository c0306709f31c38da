// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/algorithms"
)

// Training stages reported through the stage hook and TrainingStatus.
const (
	StageLoading    = "loading"
	StageFeatures   = "features"
	StageClustering = "clustering"
	StageTrees      = "classifiers"
	StageEvaluating = "evaluating"
)

// Trainer runs the offline training pipeline. A Trainer holds no mutable
// state between runs and may be reused.
type Trainer struct {
	cfg     *Config
	logger  zerolog.Logger
	onStage func(stage string)
	now     func() time.Time
}

// NewTrainer creates a trainer for cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg *Config, logger zerolog.Logger) (*Trainer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Trainer{
		cfg:    cfg.Clone(),
		logger: logger.With().Str("component", "trainer").Logger(),
		now:    time.Now,
	}, nil
}

// OnStage registers a callback invoked as the pipeline enters each stage.
func (t *Trainer) OnStage(fn func(stage string)) {
	t.onStage = fn
}

func (t *Trainer) stage(name string) {
	t.logger.Debug().Str("stage", name).Msg("training stage")
	if t.onStage != nil {
		t.onStage(name)
	}
}

// Train loads rows from src and fits a sealed, unversioned bundle.
// Cancelling ctx aborts the run and no bundle is returned.
func (t *Trainer) Train(ctx context.Context, src RowSource) (*Bundle, *TrainingReport, error) {
	start := t.now()
	seed := t.cfg.EffectiveSeed()
	report := &TrainingReport{
		RunID:     uuid.New().String(),
		Seed:      seed,
		StartedAt: start.UTC(),
	}

	t.stage(StageLoading)
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load training rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	usable, err := t.filterRows(rows, report)
	if err != nil {
		return nil, nil, err
	}

	t.stage(StageFeatures)
	eng, err := features.NewEngineer(t.cfg.Weights)
	if err != nil {
		return nil, nil, err
	}
	raw := make([][]float64, len(usable))
	for i := range usable {
		raw[i] = eng.Derive(&usable[i].Profile).Slice()
	}

	scaler, err := algorithms.FitScaler(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fit scaler: %v", ErrTrainingData, err)
	}
	scaled, err := scaler.TransformAll(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("scale features: %w", err)
	}

	t.stage(StageClustering)
	km, err := algorithms.FitKMeans(ctx, scaled, t.cfg.KMeans())
	if err != nil {
		if errors.Is(err, algorithms.ErrInsufficientData) {
			return nil, nil, fmt.Errorf("%w: %v", ErrTrainingData, err)
		}
		return nil, nil, err
	}
	report.Clusters = t.clusterMetrics(scaled, km, seed)

	// Classifier inputs carry the cluster id stored at fit time.
	augmented := make([][]float64, len(raw))
	for i, r := range raw {
		row := make([]float64, len(r)+1)
		copy(row, r)
		row[len(r)] = float64(km.Assignments[i])
		augmented[i] = row
	}

	trainIdx, testIdx := splitIndices(len(usable), t.cfg.Training.TestFraction, seed)
	report.TrainRows = len(trainIdx)
	report.TestRows = len(testIdx)

	t.stage(StageTrees)
	schema := features.CurrentSchema()
	classifierSchema := schema.With(ClusterFeature)
	models := make([]CategoryModel, NumCategories)

	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range Categories {
		g.Go(func() error {
			x, y := subset(augmented, usable, trainIdx, cat)
			tree, err := algorithms.FitTree(gctx, x, y, cat.NumLabels(), t.cfg.TreeParams())
			if err != nil {
				return fmt.Errorf("fit %s classifier: %w", cat, err)
			}
			models[i] = CategoryModel{
				Category: cat,
				Labels:   cat.Labels(),
				Schema:   classifierSchema,
				Tree:     *tree,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	t.stage(StageEvaluating)
	report.Categories = make([]CategoryMetrics, NumCategories)
	for i, cat := range Categories {
		x, y := subset(augmented, usable, testIdx, cat)
		pred := make([]int, len(x))
		for j, row := range x {
			class, _, err := models[i].Tree.Predict(row)
			if err != nil {
				return nil, nil, fmt.Errorf("evaluate %s classifier: %w", cat, err)
			}
			pred[j] = class
		}
		m, err := EvaluateCategory(cat, y, pred)
		if err != nil {
			return nil, nil, err
		}
		report.Categories[i] = m
	}

	bundle := &Bundle{
		TrainedAt:   t.now().UTC(),
		Seed:        seed,
		Schema:      schema,
		Weights:     t.cfg.Weights,
		Scaler:      *scaler,
		Segments:    *km.Model,
		Classifiers: models,
	}
	if err := bundle.Seal(); err != nil {
		return nil, nil, fmt.Errorf("seal bundle: %w", err)
	}

	report.CompletedAt = bundle.TrainedAt
	report.DurationMS = report.CompletedAt.Sub(report.StartedAt).Milliseconds()

	t.logger.Info().
		Int("rows", report.UsedRows).
		Int("dropped", report.DroppedRows).
		Int("clusters", report.Clusters.K).
		Float64("inertia", report.Clusters.Inertia).
		Float64("silhouette", report.Clusters.Silhouette).
		Int64("duration_ms", report.DurationMS).
		Msg("training pipeline complete")

	return bundle, report, nil
}

// filterRows drops invalid rows and enforces the drop-rate ceiling.
func (t *Trainer) filterRows(rows []TrainingRow, report *TrainingReport) ([]TrainingRow, error) {
	report.TotalRows = len(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrTrainingData)
	}

	usable := make([]TrainingRow, 0, len(rows))
	for i := range rows {
		if rows[i].Valid() {
			usable = append(usable, rows[i])
		}
	}

	report.UsedRows = len(usable)
	report.DroppedRows = len(rows) - len(usable)
	report.DropRate = float64(report.DroppedRows) / float64(len(rows))

	if report.DroppedRows > 0 {
		t.logger.Warn().
			Int("dropped", report.DroppedRows).
			Int("total", report.TotalRows).
			Float64("drop_rate", report.DropRate).
			Msg("dropped invalid training rows")
	}

	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no usable rows out of %d", ErrTrainingData, len(rows))
	}
	if report.DropRate > t.cfg.Training.MaxDropRate {
		return nil, fmt.Errorf("%w: drop rate %.4f exceeds %.4f (%d of %d rows)",
			ErrTrainingData, report.DropRate, t.cfg.Training.MaxDropRate, report.DroppedRows, report.TotalRows)
	}
	if len(usable) < t.cfg.Clustering.K || len(usable) < 2 {
		return nil, fmt.Errorf("%w: %d usable rows for %d clusters", ErrTrainingData, len(usable), t.cfg.Clustering.K)
	}
	return usable, nil
}

func (t *Trainer) clusterMetrics(scaled [][]float64, km *algorithms.KMeansResult, seed int64) ClusterMetrics {
	k := km.Model.K()
	return ClusterMetrics{
		K:                k,
		Inertia:          km.Inertia,
		Silhouette:       algorithms.SampledSilhouette(scaled, km.Assignments, k, t.cfg.Training.SilhouetteSample, seed),
		DaviesBouldin:    algorithms.DaviesBouldin(scaled, km.Assignments, km.Model.Centroids),
		CalinskiHarabasz: algorithms.CalinskiHarabasz(scaled, km.Assignments, km.Model.Centroids),
		Sizes:            algorithms.ClusterSizes(km.Assignments, k),
		Iterations:       km.Iterations,
	}
}

// splitIndices shuffles 0..n-1 with a seeded Fisher-Yates shuffle and holds
// out round(n*fraction) rows, at least one and never all. Both halves are
// returned in ascending order. n must be at least 2.
func splitIndices(n int, fraction float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: reproducible split, not security sensitive
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	testCount := int(math.Round(float64(n) * fraction))
	if testCount < 1 {
		testCount = 1
	}
	if testCount > n-1 {
		testCount = n - 1
	}

	test = append([]int(nil), idx[:testCount]...)
	train = append([]int(nil), idx[testCount:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test
}

// subset selects the rows at idx and their labels for cat.
func subset(x [][]float64, rows []TrainingRow, idx []int, cat Category) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, k := range idx {
		outX[i] = x[k]
		outY[i] = rows[k].Labels[cat]
	}
	return outX, outY
}
