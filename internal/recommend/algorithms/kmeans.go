// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// KMeansConfig configures FitKMeans.
type KMeansConfig struct {
	// K is the number of clusters.
	K int

	// Restarts is the number of independent k-means++ initializations.
	// The run with the lowest inertia wins.
	Restarts int

	// MaxIterations bounds Lloyd refinement steps per restart.
	MaxIterations int

	// Tolerance is the convergence threshold on total squared centroid
	// movement, relative to the mean per-feature variance of the data.
	Tolerance float64

	// Seed drives initialization.
	Seed int64
}

// DefaultKMeansConfig returns 5 clusters, 10 restarts, 300 iterations.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:             5,
		Restarts:      10,
		MaxIterations: 300,
		Tolerance:     1e-4,
		Seed:          42,
	}
}

// KMeansModel is a fitted, immutable set of centroids.
type KMeansModel struct {
	Centroids [][]float64
}

// KMeansResult is the outcome of FitKMeans.
type KMeansResult struct {
	Model       *KMeansModel
	Assignments []int
	Inertia     float64
	Iterations  int
	BestRestart int
}

// FitKMeans clusters rows with Lloyd's algorithm, seeding each restart with
// k-means++. rows are not modified.
func FitKMeans(ctx context.Context, rows [][]float64, cfg KMeansConfig) (*KMeansResult, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("fit kmeans: k must be positive, got %d", cfg.K)
	}
	if len(rows) < cfg.K {
		return nil, fmt.Errorf("fit kmeans: %w: %d rows for %d clusters", ErrInsufficientData, len(rows), cfg.K)
	}
	dim := len(rows[0])
	if err := checkDim(rows, dim); err != nil {
		return nil, fmt.Errorf("fit kmeans: %w", err)
	}
	if cfg.Restarts < 1 {
		cfg.Restarts = 1
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 1
	}

	tol := cfg.Tolerance * meanVariance(rows)

	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var best *KMeansResult
	for restart := 0; restart < cfg.Restarts; restart++ {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		centroids := seedPlusPlus(rows, cfg.K, rng)
		centroids, iterations := lloyd(rows, centroids, cfg.MaxIterations, tol)
		labels, inertia := assignAll(rows, centroids)

		if best == nil || inertia < best.Inertia {
			best = &KMeansResult{
				Model:       &KMeansModel{Centroids: centroids},
				Assignments: labels,
				Inertia:     inertia,
				Iterations:  iterations,
				BestRestart: restart,
			}
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centroids: the first uniformly at random, each
// next one with probability proportional to its squared distance from the
// nearest centroid chosen so far.
func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneRow(rows[rng.Intn(n)]))

	closest := make([]float64, n)
	for i, r := range rows {
		closest[i] = squaredDistance(r, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range closest {
			total += d
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			var cum float64
			next = n - 1
			for i, d := range closest {
				cum += d
				if cum > target {
					next = i
					break
				}
			}
		} else {
			// every row already coincides with a centroid
			next = rng.Intn(n)
		}

		c := cloneRow(rows[next])
		centroids = append(centroids, c)
		for i, r := range rows {
			if d := squaredDistance(r, c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

// lloyd refines centroids until movement falls to tol or maxIter is reached.
func lloyd(rows [][]float64, centroids [][]float64, maxIter int, tol float64) ([][]float64, int) {
	k := len(centroids)
	dim := len(rows[0])
	labels := make([]int, len(rows))

	iter := 0
	for iter < maxIter {
		iter++
		for i, r := range rows {
			labels[i], _ = nearest(r, centroids)
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, r := range rows {
			c := labels[i]
			counts[c]++
			for j, v := range r {
				sums[c][j] += v
			}
		}

		next := make([][]float64, k)
		var reseeded map[int]bool
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				if reseeded == nil {
					reseeded = make(map[int]bool)
				}
				idx := farthestFrom(rows, labels, centroids, reseeded)
				reseeded[idx] = true
				next[c] = cloneRow(rows[idx])
				continue
			}
			next[c] = make([]float64, dim)
			for j := range sums[c] {
				next[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		var shift float64
		for c := range next {
			shift += squaredDistance(next[c], centroids[c])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}
	return centroids, iter
}

// farthestFrom returns the row farthest from its assigned centroid, skipping
// rows already used. Used to re-seed a cluster that lost all of its members.
func farthestFrom(rows [][]float64, labels []int, centroids [][]float64, skip map[int]bool) int {
	idx := 0
	maxD := -1.0
	for i, r := range rows {
		if skip[i] {
			continue
		}
		if d := squaredDistance(r, centroids[labels[i]]); d > maxD {
			maxD = d
			idx = i
		}
	}
	return idx
}

// assignAll labels every row and returns the total inertia.
func assignAll(rows [][]float64, centroids [][]float64) ([]int, float64) {
	labels := make([]int, len(rows))
	var inertia float64
	for i, r := range rows {
		c, d := nearest(r, centroids)
		labels[i] = c
		inertia += d
	}
	return labels, inertia
}

// nearest returns the closest centroid index and the squared distance to it.
// Ties resolve to the lowest index.
func nearest(x []float64, centroids [][]float64) (int, float64) {
	best := 0
	bestD := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(x, centroid); d < bestD {
			best = c
			bestD = d
		}
	}
	return best, bestD
}

// meanVariance is the average per-column population variance of rows.
func meanVariance(rows [][]float64) float64 {
	dim := len(rows[0])
	if dim == 0 {
		return 0
	}
	n := float64(len(rows))
	var total float64
	for j := 0; j < dim; j++ {
		var mean float64
		for _, r := range rows {
			mean += r[j]
		}
		mean /= n
		var v float64
		for _, r := range rows {
			d := r[j] - mean
			v += d * d
		}
		total += v / n
	}
	return total / float64(dim)
}

func cloneRow(r []float64) []float64 {
	out := make([]float64, len(r))
	copy(out, r)
	return out
}

// K returns the number of clusters.
func (m *KMeansModel) K() int { return len(m.Centroids) }

// Dim returns the centroid dimension.
func (m *KMeansModel) Dim() int {
	if len(m.Centroids) == 0 {
		return 0
	}
	return len(m.Centroids[0])
}

// Assign returns the nearest centroid by Euclidean distance, ties to the
// lowest cluster index, and the distance to it.
func (m *KMeansModel) Assign(x []float64) (int, float64, error) {
	if len(m.Centroids) == 0 {
		return 0, 0, fmt.Errorf("%w: model has no centroids", ErrInsufficientData)
	}
	if len(x) != m.Dim() {
		return 0, 0, fmt.Errorf("%w: centroids have %d dimensions, got %d", ErrDimensionMismatch, m.Dim(), len(x))
	}
	c, d := nearest(x, m.Centroids)
	return c, math.Sqrt(d), nil
}
