// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"math"
	"math/rand"
)

// ClusterSizes counts rows per cluster.
func ClusterSizes(labels []int, k int) []int {
	sizes := make([]int, k)
	for _, l := range labels {
		if l >= 0 && l < k {
			sizes[l]++
		}
	}
	return sizes
}

// Silhouette returns the mean silhouette coefficient of the labelled rows.
// For each row s = (b-a)/max(a,b) where a is the mean distance to the other
// members of its cluster and b the mean distance to the members of the
// nearest other cluster. Rows in singleton clusters score 0. Returns 0 when
// fewer than two clusters are populated.
func Silhouette(rows [][]float64, labels []int, k int) float64 {
	n := len(rows)
	if n < 2 || k < 2 {
		return 0
	}
	sizes := ClusterSizes(labels, k)
	populated := 0
	for _, s := range sizes {
		if s > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0
	}

	var total float64
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(squaredDistance(rows[i], rows[j]))
		}

		own := labels[i]
		if sizes[own] <= 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

// SampledSilhouette computes Silhouette on at most sampleSize rows chosen
// with a seeded shuffle. sampleSize <= 0 or >= len(rows) uses every row.
func SampledSilhouette(rows [][]float64, labels []int, k, sampleSize int, seed int64) float64 {
	if sampleSize <= 0 || sampleSize >= len(rows) {
		return Silhouette(rows, labels, k)
	}
	//nolint:gosec // G404: sampling for a report metric
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(rows))[:sampleSize]
	subRows := make([][]float64, sampleSize)
	subLabels := make([]int, sampleSize)
	for i, idx := range perm {
		subRows[i] = rows[idx]
		subLabels[i] = labels[idx]
	}
	return Silhouette(subRows, subLabels, k)
}

// DaviesBouldin returns the Davies-Bouldin index (lower is better): the mean
// over clusters of the worst (s_i+s_j)/d(c_i,c_j) ratio, where s is the mean
// distance of members to their centroid.
func DaviesBouldin(rows [][]float64, labels []int, centroids [][]float64) float64 {
	k := len(centroids)
	if k < 2 {
		return 0
	}
	scatter := make([]float64, k)
	sizes := ClusterSizes(labels, k)
	for i, r := range rows {
		scatter[labels[i]] += math.Sqrt(squaredDistance(r, centroids[labels[i]]))
	}
	for c := range scatter {
		if sizes[c] > 0 {
			scatter[c] /= float64(sizes[c])
		}
	}

	var total float64
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			d := math.Sqrt(squaredDistance(centroids[i], centroids[j]))
			if d == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / d; r > worst {
				worst = r
			}
		}
		total += worst
	}
	return total / float64(k)
}

// CalinskiHarabasz returns the variance ratio criterion (higher is better).
// Returns 0 when it is undefined (k < 2, n <= k, or zero within-cluster
// dispersion).
func CalinskiHarabasz(rows [][]float64, labels []int, centroids [][]float64) float64 {
	n := len(rows)
	k := len(centroids)
	if k < 2 || n <= k {
		return 0
	}
	dim := len(rows[0])
	mean := make([]float64, dim)
	for _, r := range rows {
		for j, v := range r {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	sizes := ClusterSizes(labels, k)
	var between, within float64
	for c, centroid := range centroids {
		between += float64(sizes[c]) * squaredDistance(centroid, mean)
	}
	for i, r := range rows {
		within += squaredDistance(r, centroids[labels[i]])
	}
	if within == 0 {
		return 0
	}
	return (between / float64(k-1)) / (within / float64(n-k))
}
