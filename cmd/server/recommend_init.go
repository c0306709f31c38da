// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/finsegment/internal/config"
	"github.com/tomtom215/finsegment/internal/dataset"
	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
	"github.com/tomtom215/finsegment/internal/runs"
)

// RecommendComponents holds the engine and the collaborators it was wired to.
type RecommendComponents struct {
	Engine *recommend.Engine
	Store  *storage.Store
	Runs   *runs.Store
	Bus    *events.Bus
	Source recommend.RowSource
}

// Close releases the ledger and the event bus.
func (c *RecommendComponents) Close() {
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if c.Runs != nil {
		if err := c.Runs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing run ledger")
		}
	}
}

// initRecommend builds the bundle store, run ledger, event bus, engine and
// training source. On error everything opened so far is closed.
func initRecommend(cfg *config.Config) (_ *RecommendComponents, err error) {
	comps := &RecommendComponents{}
	defer func() {
		if err != nil {
			comps.Close()
		}
	}()

	comps.Store, err = storage.NewStore(cfg.Models.Dir)
	if err != nil {
		return nil, fmt.Errorf("open bundle store: %w", err)
	}

	comps.Runs, err = runs.Open(&cfg.Runs, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}

	comps.Bus, err = events.New(&cfg.Events, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}

	comps.Engine, err = recommend.NewEngine(&cfg.Recommend, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	comps.Engine.SetStore(comps.Store)
	comps.Engine.SetRetention(cfg.Models.Keep)
	comps.Engine.SetRecorder(comps.Runs)
	comps.Engine.SetPublisher(comps.Bus)

	// One source serves every run: a file is re-read each time, the
	// generator yields fresh customers from the same seeded stream.
	comps.Source, err = dataset.Open(cfg.Dataset.Path, cfg.Dataset.Samples, cfg.Recommend.EffectiveSeed(), logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}

	logging.Info().
		Str("models_dir", comps.Store.Dir()).
		Str("events", comps.Bus.Transport()).
		Str("dataset", datasetName(cfg)).
		Int("keep_versions", cfg.Models.Keep).
		Msg("Recommendation engine initialized")
	return comps, nil
}

// loadInitialBundle serves the latest stored bundle when configured to.
// It reports whether a bundle is being served.
func loadInitialBundle(ctx context.Context, cfg *config.Config, eng *recommend.Engine) bool {
	if !cfg.Models.LoadOnStart {
		return false
	}
	b, err := eng.Reload(ctx, 0)
	if err != nil {
		if errors.Is(err, storage.ErrModelNotFound) {
			logging.Info().Msg("No stored bundle found")
		} else {
			logging.Warn().Err(err).Msg("Failed to load stored bundle")
		}
		metrics.RecordReload("startup", false, err)
		return false
	}
	metrics.RecordReload("startup", true, nil)
	metrics.SetBundle(b.Version)
	return true
}

func datasetName(cfg *config.Config) string {
	if cfg.Dataset.Path == "" {
		return "synthetic"
	}
	return cfg.Dataset.Path
}
