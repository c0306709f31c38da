// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
)

// Note: This package has no dependencies on other internal packages besides
// features and its own subpackages. Persistence of run reports and event
// publishing are injected through the interfaces below.

// BundleStore persists versioned bundles. *storage.Store implements it.
type BundleStore interface {
	Save(ctx context.Context, name string, version int, data interface{}, meta storage.ModelMetadata) error
	Load(ctx context.Context, name string, version int, target interface{}) (*storage.ModelMetadata, error)
	NextVersion(name string) int
	Versions(ctx context.Context, name string) ([]storage.ModelMetadata, error)
}

// BundlePruner is implemented by stores that can drop old versions.
type BundlePruner interface {
	Prune(ctx context.Context, name string, keepVersions int) (int, error)
}

// RunRecorder records completed training reports.
type RunRecorder interface {
	Record(ctx context.Context, report *TrainingReport) error
}

// BundlePublisher announces a newly committed bundle version.
type BundlePublisher interface {
	PublishBundle(ctx context.Context, version int, runID string) error
}

// Engine coordinates training, persistence and serving of model bundles.
// It is safe for concurrent use.
type Engine struct {
	config  *Config
	logger  zerolog.Logger
	trainer *Trainer
	handle  *Handle

	store     BundleStore
	recorder  RunRecorder
	publisher BundlePublisher
	keep      int

	// trainMu serializes training runs.
	trainMu sync.Mutex

	statusMu sync.RWMutex
	status   TrainingStatus
}

var (
	_ BundleStore  = (*storage.Store)(nil)
	_ BundlePruner = (*storage.Store)(nil)
)

// NewEngine creates a new engine with an empty bundle handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	trainer, err := NewTrainer(cfg, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:  cfg.Clone(),
		logger:  logger.With().Str("component", "recommend").Logger(),
		trainer: trainer,
		handle:  NewHandle(),
	}
	trainer.OnStage(e.setStage)
	return e, nil
}

// SetStore sets the bundle store used to persist and reload bundles.
func (e *Engine) SetStore(s BundleStore) {
	e.store = s
}

// SetRetention keeps only the newest keep bundle versions after each
// training run when the store supports pruning. Zero keeps every version.
func (e *Engine) SetRetention(keep int) {
	e.keep = keep
}

// SetRecorder sets the ledger that training reports are written to.
func (e *Engine) SetRecorder(r RunRecorder) {
	e.recorder = r
}

// SetPublisher sets the publisher notified after a bundle is committed.
func (e *Engine) SetPublisher(p BundlePublisher) {
	e.publisher = p
}

// Handle returns the engine's bundle handle.
func (e *Engine) Handle() *Handle {
	return e.handle
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Current returns the bundle being served, or nil when none is loaded.
func (e *Engine) Current() *Bundle {
	return e.handle.Load()
}

// Ready reports whether a bundle is loaded.
func (e *Engine) Ready() bool {
	return e.handle.Ready()
}

// Recommend runs the inference pipeline against the current bundle.
func (e *Engine) Recommend(ctx context.Context, p *features.Profile) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := Predict(e.handle.Load(), p)
	if err != nil {
		if errors.Is(err, ErrSchemaMismatch) {
			e.logger.Error().Err(err).Msg("inference schema mismatch")
		}
		return nil, err
	}
	return res, nil
}

// Train runs the training pipeline on src, persists the bundle, swaps it in
// and records the report. Only one run may be active at a time.
func (e *Engine) Train(ctx context.Context, src RowSource) (*TrainingReport, error) {
	if err := e.acquireTrainingLock(); err != nil {
		return nil, err
	}
	defer e.trainMu.Unlock()

	start := time.Now()
	e.initializeTrainingStatus()
	e.logger.Info().Msg("starting model training")

	report, err := e.runTraining(ctx, src)
	e.finalizeTrainingStatus(start, report, err)
	if err != nil {
		e.logger.Error().Err(err).Msg("model training failed")
		return nil, err
	}

	e.logger.Info().
		Int("version", report.Version).
		Int("rows", report.UsedRows).
		Int64("duration_ms", report.DurationMS).
		Msg("model training complete")

	return report, nil
}

func (e *Engine) runTraining(ctx context.Context, src RowSource) (*TrainingReport, error) {
	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	bundle, report, err := e.trainer.Train(trainCtx, src)
	if err != nil {
		return nil, err
	}

	// The training timeout bounds fitting only; the commit runs on ctx.
	bundle, err = e.commit(ctx, bundle, report)
	if err != nil {
		return nil, err
	}
	version := bundle.Version
	report.Version = version

	if _, err := e.handle.Swap(bundle); err != nil {
		return nil, err
	}

	// The bundle is committed; pruning, ledger and event failures are
	// logged only.
	e.prune(ctx)
	if e.recorder != nil {
		if err := e.recorder.Record(ctx, report); err != nil {
			e.logger.Warn().Err(err).Int("version", version).Msg("failed to record training run")
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishBundle(ctx, version, report.RunID); err != nil {
			e.logger.Warn().Err(err).Int("version", version).Msg("failed to publish bundle event")
		}
	}
	return report, nil
}

// maxCommitAttempts bounds retries when another process claims the same
// version first.
const maxCommitAttempts = 5

// commit numbers the bundle and persists it. A version already written by
// another process sharing the store is skipped, never overwritten.
func (e *Engine) commit(ctx context.Context, bundle *Bundle, report *TrainingReport) (*Bundle, error) {
	if e.store == nil {
		return bundle.WithVersion(e.nextVersion()), nil
	}
	meta := storage.ModelMetadata{
		TrainedAt:          bundle.TrainedAt,
		SchemaVersion:      bundle.Schema.Version,
		Seed:               bundle.Seed,
		RowCount:           report.UsedRows,
		TrainingDurationMS: report.DurationMS,
	}
	var err error
	for range maxCommitAttempts {
		numbered := bundle.WithVersion(e.nextVersion())
		err = e.store.Save(ctx, BundleName, numbered.Version, numbered, meta)
		if err == nil {
			return numbered, nil
		}
		if !errors.Is(err, storage.ErrVersionExists) {
			return nil, fmt.Errorf("save bundle: %w", err)
		}
		e.logger.Warn().Int("version", numbered.Version).Msg("bundle version taken by another writer, retrying")
	}
	return nil, fmt.Errorf("save bundle: %w", err)
}

func (e *Engine) prune(ctx context.Context) {
	pruner, ok := e.store.(BundlePruner)
	if !ok || e.keep <= 0 {
		return
	}
	removed, err := pruner.Prune(ctx, BundleName, e.keep)
	if err != nil {
		e.logger.Warn().Err(err).Int("keep", e.keep).Msg("failed to prune bundle versions")
		return
	}
	if removed > 0 {
		e.logger.Debug().Int("removed", removed).Int("keep", e.keep).Msg("pruned bundle versions")
	}
}

func (e *Engine) nextVersion() int {
	if e.store != nil {
		return e.store.NextVersion(BundleName)
	}
	if cur := e.handle.Load(); cur != nil {
		return cur.Version + 1
	}
	return 1
}

// acquireTrainingLock attempts to acquire the training lock.
func (e *Engine) acquireTrainingLock() error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	return nil
}

// initializeTrainingStatus prepares the training status.
func (e *Engine) initializeTrainingStatus() {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.IsTraining = true
	e.status.Stage = ""
	e.status.LastError = ""
}

func (e *Engine) setStage(stage string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.Stage = stage
}

// finalizeTrainingStatus updates the training status after completion.
func (e *Engine) finalizeTrainingStatus(start time.Time, report *TrainingReport, err error) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.status.IsTraining = false
	e.status.Stage = ""
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
		return
	}
	e.status.LastTrainedAt = report.CompletedAt
	e.status.RowCount = report.UsedRows
	e.status.DroppedRows = report.DroppedRows
	e.status.ModelVersion = report.Version
}

// Status returns a snapshot of the training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	st := e.status
	if b := e.handle.Load(); b != nil {
		st.ModelVersion = b.Version
	}
	return st
}

// LoadBundle reads a bundle from the store and seals it without swapping it
// in. Version 0 loads the latest.
func (e *Engine) LoadBundle(ctx context.Context, version int) (*Bundle, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no bundle store configured", ErrModelNotReady)
	}
	var b Bundle
	if _, err := e.store.Load(ctx, BundleName, version, &b); err != nil {
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	if err := b.Seal(); err != nil {
		return nil, fmt.Errorf("load bundle v%d: %w", b.Version, err)
	}
	return &b, nil
}

// Reload loads the given version (0 = latest) and swaps it in. Older
// versions are accepted so an operator can roll back.
func (e *Engine) Reload(ctx context.Context, version int) (*Bundle, error) {
	b, err := e.LoadBundle(ctx, version)
	if err != nil {
		return nil, err
	}
	prev, err := e.handle.Swap(b)
	if err != nil {
		return nil, err
	}

	ev := e.logger.Info().Int("version", b.Version)
	if prev != nil {
		ev = ev.Int("previous_version", prev.Version)
	}
	ev.Msg("model bundle loaded")
	return b, nil
}

// ReloadIfNewer loads version and swaps it in only when it is newer than the
// bundle being served. It reports whether a swap happened.
func (e *Engine) ReloadIfNewer(ctx context.Context, version int) (bool, error) {
	if cur := e.handle.Load(); cur != nil && version > 0 && cur.Version >= version {
		return false, nil
	}
	b, err := e.LoadBundle(ctx, version)
	if err != nil {
		return false, err
	}
	swapped, err := e.handle.SwapIfNewer(b)
	if err != nil {
		return false, err
	}
	if swapped {
		e.logger.Info().Int("version", b.Version).Msg("model bundle hot swapped")
	}
	return swapped, nil
}

// Versions lists persisted bundle versions.
func (e *Engine) Versions(ctx context.Context) ([]storage.ModelMetadata, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.Versions(ctx, BundleName)
}
