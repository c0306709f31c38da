// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
)

// Training triggers recorded in metrics and logs.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
)

// TrainingEngine runs one training pipeline. *recommend.Engine satisfies it.
type TrainingEngine interface {
	Train(ctx context.Context, src recommend.RowSource) (*recommend.TrainingReport, error)
}

// SourceFunc opens the row source for one training run.
type SourceFunc func() (recommend.RowSource, error)

// RetrainConfig holds the retraining schedule.
type RetrainConfig struct {
	// Interval between scheduled runs. Zero disables the schedule; Serve
	// then only performs the startup run.
	Interval time.Duration

	// OnStartup trains once when the service starts.
	OnStartup bool

	// Timeout bounds a single run. Default: 30m
	Timeout time.Duration
}

// RetrainService is the single entry point for training in the server: the
// periodic schedule, the startup run and the manual API trigger all go
// through Train.
type RetrainService struct {
	engine TrainingEngine
	source SourceFunc
	config RetrainConfig
	logger zerolog.Logger
	name   string
}

// NewRetrainService creates a retraining service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(engine TrainingEngine, source SourceFunc, cfg RetrainConfig, logger zerolog.Logger) *RetrainService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &RetrainService{
		engine: engine,
		source: source,
		config: cfg,
		logger: logger.With().Str("service", "retrain").Logger(),
		name:   "retrain-service",
	}
}

// Train runs one training pipeline and records its outcome.
func (s *RetrainService) Train(ctx context.Context, trigger string) (*recommend.TrainingReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	src, err := s.source()
	if err != nil {
		err = fmt.Errorf("open training data: %w", err)
		metrics.RecordTrainingRun(trigger, time.Since(start), nil, err)
		return nil, err
	}

	s.logger.Info().Str("trigger", trigger).Msg("starting model training")
	report, err := s.engine.Train(ctx, src)
	metrics.RecordTrainingRun(trigger, time.Since(start), trainingOutcome(report), err)
	if err != nil {
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("model training failed")
		return nil, err
	}

	metrics.SetBundle(report.Version)
	s.logger.Info().
		Str("trigger", trigger).
		Int("version", report.Version).
		Str("run_id", report.RunID).
		Int64("duration_ms", report.DurationMS).
		Msg("model training complete")
	return report, nil
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.OnStartup).
		Dur("train_interval", s.config.Interval).
		Msg("retrain service starting")

	if s.config.OnStartup {
		// failures were logged and counted; the schedule retries
		_, _ = s.Train(ctx, TriggerStartup)
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()
		case <-ticker.C:
			_, _ = s.Train(ctx, TriggerSchedule)
		}
	}
}

// String implements fmt.Stringer.
func (s *RetrainService) String() string {
	return s.name
}

func trainingOutcome(r *recommend.TrainingReport) *metrics.TrainingOutcome {
	if r == nil {
		return nil
	}
	acc := make(map[string]float64, len(r.Categories))
	for _, m := range r.Categories {
		acc[m.Category] = m.Accuracy
	}
	return &metrics.TrainingOutcome{
		UsedRows:   r.UsedRows,
		Dropped:    r.DroppedRows,
		Silhouette: r.Clusters.Silhouette,
		Accuracy:   acc,
	}
}
