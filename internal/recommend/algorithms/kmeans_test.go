// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package algorithms

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// twoBlobs returns 2*n rows in 7 dimensions split between tight groups
// around 0 and 10.
func twoBlobs(n int) [][]float64 {
	rows := make([][]float64, 0, 2*n)
	for _, center := range []float64{0, 10} {
		for i := 0; i < n; i++ {
			r := make([]float64, 7)
			for j := range r {
				r[j] = center + float64((i*7+j)%5)*0.02
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func scaledBlobs(t *testing.T, n int) [][]float64 {
	t.Helper()
	rows := twoBlobs(n)
	s, err := FitScaler(rows)
	if err != nil {
		t.Fatalf("FitScaler() error = %v", err)
	}
	scaled, err := s.TransformAll(rows)
	if err != nil {
		t.Fatalf("TransformAll() error = %v", err)
	}
	return scaled
}

func TestFitKMeans_SeparableClusters(t *testing.T) {
	t.Parallel()

	rows := scaledBlobs(t, 20)
	cfg := DefaultKMeansConfig()
	cfg.K = 2

	res, err := FitKMeans(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("FitKMeans() error = %v", err)
	}

	first := res.Assignments[0]
	for i := 0; i < 20; i++ {
		if res.Assignments[i] != first {
			t.Fatalf("row %d assigned to %d, want %d", i, res.Assignments[i], first)
		}
	}
	for i := 20; i < 40; i++ {
		if res.Assignments[i] == first {
			t.Fatalf("row %d assigned to the first blob's cluster", i)
		}
	}

	sizes := ClusterSizes(res.Assignments, 2)
	if sizes[0] != 20 || sizes[1] != 20 {
		t.Errorf("ClusterSizes() = %v, want [20 20]", sizes)
	}
	if s := Silhouette(rows, res.Assignments, 2); s <= 0.9 {
		t.Errorf("Silhouette() = %v, want > 0.9", s)
	}
	if res.Inertia <= 0 {
		t.Errorf("Inertia = %v, want > 0", res.Inertia)
	}
}

func TestFitKMeans_Reproducible(t *testing.T) {
	t.Parallel()

	rows := scaledBlobs(t, 15)
	cfg := DefaultKMeansConfig()
	cfg.K = 3

	a, err := FitKMeans(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("FitKMeans() error = %v", err)
	}
	b, err := FitKMeans(context.Background(), rows, cfg)
	if err != nil {
		t.Fatalf("FitKMeans() error = %v", err)
	}

	if !reflect.DeepEqual(a.Model.Centroids, b.Model.Centroids) {
		t.Error("same seed produced different centroids")
	}
	if a.Inertia != b.Inertia {
		t.Errorf("inertia differs: %v vs %v", a.Inertia, b.Inertia)
	}
}

func TestFitKMeans_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, err := FitKMeans(ctx, [][]float64{{1}, {2}}, KMeansConfig{K: 3}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("too few rows: error = %v, want ErrInsufficientData", err)
	}
	if _, err := FitKMeans(ctx, [][]float64{{1}, {2}}, KMeansConfig{K: 0}); err == nil {
		t.Error("k=0: expected error")
	}
	if _, err := FitKMeans(ctx, [][]float64{{1, 2}, {2}}, KMeansConfig{K: 1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ragged: error = %v, want ErrDimensionMismatch", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := FitKMeans(cancelled, twoBlobs(5), KMeansConfig{K: 2, Restarts: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: error = %v, want context.Canceled", err)
	}
}

func TestFitKMeans_DuplicateRows(t *testing.T) {
	t.Parallel()

	rows := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	res, err := FitKMeans(context.Background(), rows, KMeansConfig{K: 2, Restarts: 2, MaxIterations: 10})
	if err != nil {
		t.Fatalf("FitKMeans() error = %v", err)
	}
	if res.Inertia != 0 {
		t.Errorf("Inertia = %v, want 0", res.Inertia)
	}
	if res.Model.K() != 2 {
		t.Errorf("K() = %d, want 2", res.Model.K())
	}
}

func TestKMeansModel_Assign(t *testing.T) {
	t.Parallel()

	m := &KMeansModel{Centroids: [][]float64{{0, 0}, {2, 0}, {10, 10}}}

	tests := []struct {
		name     string
		x        []float64
		want     int
		wantDist float64
	}{
		{"exact", []float64{10, 10}, 2, 0},
		{"nearest", []float64{0, 1}, 0, 1},
		{"tie_goes_to_lowest", []float64{1, 0}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, dist, err := m.Assign(tt.x)
			if err != nil {
				t.Fatalf("Assign() error = %v", err)
			}
			if got != tt.want || dist != tt.wantDist {
				t.Errorf("Assign(%v) = (%d, %v), want (%d, %v)", tt.x, got, dist, tt.want, tt.wantDist)
			}
		})
	}

	if _, _, err := m.Assign([]float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Assign() error = %v, want ErrDimensionMismatch", err)
	}
}
