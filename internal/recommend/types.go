// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/finsegment/internal/features"
)

// TrainingRow is one labelled customer from a training dataset.
type TrainingRow struct {
	Profile features.Profile

	// Labels holds the label index per category, indexed by Category.
	Labels [NumCategories]int

	// Missing names the required fields that were absent, unparseable or
	// outside their valid range. A row with any missing field is dropped.
	Missing []string
}

// Valid reports whether the row can be used for training.
func (r *TrainingRow) Valid() bool {
	if len(r.Missing) > 0 {
		return false
	}
	for i, c := range Categories {
		if r.Labels[i] < 0 || r.Labels[i] >= c.NumLabels() {
			return false
		}
	}
	return true
}

// RowSource supplies training rows. Implementations must honour ctx.
type RowSource interface {
	Rows(ctx context.Context) ([]TrainingRow, error)
}

// RowsFunc adapts a function to RowSource.
type RowsFunc func(ctx context.Context) ([]TrainingRow, error)

// Rows calls f.
func (f RowsFunc) Rows(ctx context.Context) ([]TrainingRow, error) {
	return f(ctx)
}

// StaticRows is a RowSource over an in-memory slice.
type StaticRows []TrainingRow

// Rows returns the rows unless ctx is already done.
func (s StaticRows) Rows(ctx context.Context) ([]TrainingRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// TrainingReport is the outcome of one training run.
type TrainingReport struct {
	RunID       string    `json:"run_id"`
	Version     int       `json:"version"`
	Seed        int64     `json:"seed"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMS  int64     `json:"duration_ms"`

	TotalRows   int     `json:"total_rows"`
	UsedRows    int     `json:"used_rows"`
	DroppedRows int     `json:"dropped_rows"`
	DropRate    float64 `json:"drop_rate"`
	TrainRows   int     `json:"train_rows"`
	TestRows    int     `json:"test_rows"`

	Clusters   ClusterMetrics    `json:"clusters"`
	Categories []CategoryMetrics `json:"categories"`
}

// TrainingStatus represents the current training state.
type TrainingStatus struct {
	// IsTraining indicates whether training is currently in progress.
	IsTraining bool `json:"is_training"`

	// Stage is the pipeline stage currently running.
	Stage string `json:"stage,omitempty"`

	// LastTrainedAt is when training last completed successfully.
	LastTrainedAt time.Time `json:"last_trained_at"`

	// LastTrainingDurationMS is how long the last training took.
	LastTrainingDurationMS int64 `json:"last_training_duration_ms"`

	// LastError contains the last training error, if any.
	LastError string `json:"last_error,omitempty"`

	// RowCount is the number of usable rows in the last run.
	RowCount int `json:"row_count"`

	// DroppedRows is the number of rows dropped in the last run.
	DroppedRows int `json:"dropped_rows"`

	// ModelVersion is the version of the bundle being served.
	ModelVersion int `json:"model_version"`
}
