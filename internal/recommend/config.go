// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/algorithms"
)

// Config contains all configuration for training and serving.
type Config struct {
	// Clustering contains the segmentation parameters.
	Clustering ClusteringConfig `json:"clustering" koanf:"clustering"`

	// Tree contains the category classifier parameters.
	Tree TreeConfig `json:"tree" koanf:"tree"`

	// Training contains pipeline parameters.
	Training TrainingConfig `json:"training" koanf:"training"`

	// Weights are the financial health score weights.
	Weights features.Weights `json:"weights" koanf:"weights"`

	// Seed is the random seed for deterministic training.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed" koanf:"seed"`
}

// ClusteringConfig contains parameters for K-Means segmentation.
type ClusteringConfig struct {
	// K is the number of customer segments.
	K int `json:"k" koanf:"k"`

	// StrictRange restricts K to the 4-6 band the segment catalog was
	// designed for.
	StrictRange bool `json:"strict_range" koanf:"strict_range"`

	// Restarts is the number of k-means++ initializations.
	Restarts int `json:"restarts" koanf:"restarts"`

	// MaxIterations bounds Lloyd iterations per restart.
	MaxIterations int `json:"max_iterations" koanf:"max_iterations"`

	// Tolerance is the relative convergence threshold.
	Tolerance float64 `json:"tolerance" koanf:"tolerance"`
}

// TreeConfig contains parameters for the category classifiers.
type TreeConfig struct {
	// MaxDepth is the maximum tree depth.
	MaxDepth int `json:"max_depth" koanf:"max_depth"`

	// MinSamplesSplit is the minimum node size eligible for a split.
	MinSamplesSplit int `json:"min_samples_split" koanf:"min_samples_split"`
}

// TrainingConfig contains training pipeline parameters.
type TrainingConfig struct {
	// TestFraction is the share of rows held out for evaluation.
	TestFraction float64 `json:"test_fraction" koanf:"test_fraction"`

	// MaxDropRate is the highest tolerated share of invalid rows.
	MaxDropRate float64 `json:"max_drop_rate" koanf:"max_drop_rate"`

	// SilhouetteSample caps the rows used for the silhouette score.
	// Zero uses every row.
	SilhouetteSample int `json:"silhouette_sample" koanf:"silhouette_sample"`

	// Timeout bounds loading and fitting. Persisting a finished bundle is not
	// subject to it.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`
}

const (
	// DefaultSeed is used when Config.Seed is zero.
	DefaultSeed int64 = 42

	minStrictClusters = 4
	maxStrictClusters = 6
)

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Clustering: ClusteringConfig{
			K:             5,
			StrictRange:   true,
			Restarts:      10,
			MaxIterations: 300,
			Tolerance:     1e-4,
		},
		Tree: TreeConfig{
			MaxDepth:        8,
			MinSamplesSplit: 30,
		},
		Training: TrainingConfig{
			TestFraction:     0.2,
			MaxDropRate:      0.05,
			SilhouetteSample: 2000,
			Timeout:          10 * time.Minute,
		},
		Weights: features.DefaultWeights(),
		Seed:    DefaultSeed,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Clustering.StrictRange {
		if c.Clustering.K < minStrictClusters || c.Clustering.K > maxStrictClusters {
			return fmt.Errorf("clustering.k must be in [%d, %d], got %d", minStrictClusters, maxStrictClusters, c.Clustering.K)
		}
	} else if c.Clustering.K < 2 {
		return fmt.Errorf("clustering.k must be at least 2, got %d", c.Clustering.K)
	}
	if c.Clustering.Restarts < 1 {
		return fmt.Errorf("clustering.restarts must be positive, got %d", c.Clustering.Restarts)
	}
	if c.Clustering.MaxIterations < 1 {
		return fmt.Errorf("clustering.max_iterations must be positive, got %d", c.Clustering.MaxIterations)
	}
	if c.Clustering.Tolerance < 0 {
		return fmt.Errorf("clustering.tolerance must be non-negative, got %f", c.Clustering.Tolerance)
	}

	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("tree.max_depth must be positive, got %d", c.Tree.MaxDepth)
	}
	if c.Tree.MinSamplesSplit < 2 {
		return fmt.Errorf("tree.min_samples_split must be at least 2, got %d", c.Tree.MinSamplesSplit)
	}

	if c.Training.TestFraction <= 0 || c.Training.TestFraction > 0.5 {
		return fmt.Errorf("training.test_fraction must be in (0, 0.5], got %f", c.Training.TestFraction)
	}
	if c.Training.MaxDropRate < 0 || c.Training.MaxDropRate > 1 {
		return fmt.Errorf("training.max_drop_rate must be in [0, 1], got %f", c.Training.MaxDropRate)
	}
	if c.Training.SilhouetteSample < 0 {
		return fmt.Errorf("training.silhouette_sample must be non-negative, got %d", c.Training.SilhouetteSample)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}

	if err := c.Weights.Validate(); err != nil {
		return err
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// all nested structs contain only value types
	return &Config{
		Clustering: c.Clustering,
		Tree:       c.Tree,
		Training:   c.Training,
		Weights:    c.Weights,
		Seed:       c.Seed,
	}
}

// EffectiveSeed returns Seed, or DefaultSeed when Seed is zero.
func (c *Config) EffectiveSeed() int64 {
	if c.Seed == 0 {
		return DefaultSeed
	}
	return c.Seed
}

// KMeans returns the algorithm configuration for segmentation.
func (c *Config) KMeans() algorithms.KMeansConfig {
	return algorithms.KMeansConfig{
		K:             c.Clustering.K,
		Restarts:      c.Clustering.Restarts,
		MaxIterations: c.Clustering.MaxIterations,
		Tolerance:     c.Clustering.Tolerance,
		Seed:          c.EffectiveSeed(),
	}
}

// TreeParams returns the algorithm configuration for the classifiers.
func (c *Config) TreeParams() algorithms.TreeConfig {
	return algorithms.TreeConfig{
		MaxDepth:        c.Tree.MaxDepth,
		MinSamplesSplit: c.Tree.MinSamplesSplit,
	}
}
