// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
)

// ModelEngine is the serving side of the recommendation engine.
// *recommend.Engine implements it.
type ModelEngine interface {
	Recommend(ctx context.Context, p *features.Profile) (*recommend.Result, error)
	Reload(ctx context.Context, version int) (*recommend.Bundle, error)
	Versions(ctx context.Context) ([]storage.ModelMetadata, error)
	Status() recommend.TrainingStatus
	Current() *recommend.Bundle
	Ready() bool
}

// RunLister reads the training ledger. *runs.Store implements it.
type RunLister interface {
	List(ctx context.Context, limit int) ([]*recommend.TrainingReport, error)
	Get(ctx context.Context, version int) (*recommend.TrainingReport, error)
}

// Trainer starts a training run on the configured dataset and records its
// outcome. trigger labels the run in metrics and logs.
type Trainer interface {
	Train(ctx context.Context, trigger string) (*recommend.TrainingReport, error)
}

var _ ModelEngine = (*recommend.Engine)(nil)

// HandlerConfig holds handler settings.
type HandlerConfig struct {
	ServiceName string
	Version     string

	// RequestTimeout bounds a single inference or store call.
	RequestTimeout time.Duration

	// TrainInterval and TrainBurst shape the global limiter in front of
	// POST /api/v1/models/train. A zero interval disables the limiter.
	TrainInterval time.Duration
	TrainBurst    int
}

// DefaultHandlerConfig returns the handler defaults.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		ServiceName:    "finsegment",
		Version:        "dev",
		RequestTimeout: 10 * time.Second,
		TrainInterval:  time.Minute,
		TrainBurst:     1,
	}
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, dependency setters (this file)
//   - handlers_health.go: health, liveness and readiness
//   - handlers_recommend.go: inference endpoints
//   - handlers_models.go: bundle, training and ledger endpoints
type Handler struct {
	engine    ModelEngine
	runs      RunLister
	trainer   Trainer
	config    HandlerConfig
	startTime time.Time

	trainLimiter *rate.Limiter

	// baseCtx parents background training runs so that shutdown cancels them.
	baseCtx context.Context
	bg      sync.WaitGroup
}

// NewHandler creates a new API handler.
//
// The ledger and trainer are optional and may be set later with SetRuns and
// SetTrainer; the endpoints that need them answer 503 until then.
//
// Example:
//
//	handler := api.NewHandler(engine, api.DefaultHandlerConfig())
//	handler.SetRuns(ledger)
//	router := api.NewRouter(handler, api.NewChiMiddleware(nil))
//	http.ListenAndServe(":8000", router.SetupChi())
func NewHandler(engine ModelEngine, cfg HandlerConfig) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultHandlerConfig().RequestTimeout
	}
	h := &Handler{
		engine:    engine,
		config:    cfg,
		startTime: time.Now(),
		baseCtx:   context.Background(),
	}
	if cfg.TrainInterval > 0 {
		burst := cfg.TrainBurst
		if burst < 1 {
			burst = 1
		}
		h.trainLimiter = rate.NewLimiter(rate.Every(cfg.TrainInterval), burst)
	}
	return h
}

// SetRuns sets the training ledger served under /api/v1/models/runs.
func (h *Handler) SetRuns(r RunLister) {
	h.runs = r
}

// SetTrainer sets the trainer used by POST /api/v1/models/train.
func (h *Handler) SetTrainer(t Trainer) {
	h.trainer = t
}

// SetBaseContext sets the context background training runs derive from.
func (h *Handler) SetBaseContext(ctx context.Context) {
	h.baseCtx = ctx
}

// Wait blocks until background training runs started by the handler finish.
func (h *Handler) Wait() {
	h.bg.Wait()
}
