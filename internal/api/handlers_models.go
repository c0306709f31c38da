// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
	"github.com/tomtom215/finsegment/internal/validation"
)

// RunsRequest is the validated query of GET /api/v1/models/runs.
type RunsRequest struct {
	Limit int `json:"limit" validate:"min=1,max=1000"`
}

// ReloadRequest is the validated query of POST /api/v1/models/reload.
// Version 0 selects the latest stored bundle.
type ReloadRequest struct {
	Version int `json:"version" validate:"gte=0"`
}

// ModelInfo handles GET /api/v1/models.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	b := h.engine.Current()
	if b == nil {
		rw.EngineError(recommend.ErrModelNotReady)
		return
	}
	rw.Success(b.Info())
}

// ModelVersions handles GET /api/v1/models/versions.
func (h *Handler) ModelVersions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	versions, err := h.engine.Versions(ctx)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to list bundle versions")
		rw.EngineError(err)
		return
	}
	if versions == nil {
		versions = []storage.ModelMetadata{}
	}
	rw.List(versions, len(versions))
}

// ReloadModel handles POST /api/v1/models/reload?version=N.
//
// Loads the version from the store and swaps it in. Older versions are
// accepted so operators can roll back.
func (h *Handler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ReloadRequest{}
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("version must be an integer")
			return
		}
		req.Version = n
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	b, err := h.engine.Reload(ctx, req.Version)
	metrics.RecordReload("api", err == nil, err)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int("version", req.Version).Msg("bundle reload failed")
		rw.EngineError(err)
		return
	}
	metrics.SetBundle(b.Version)
	rw.Success(b.Info())
}

// TrainModel handles POST /api/v1/models/train.
//
// Starts a training run in the background and answers 202. Responds 409
// while a run is active and 429 when the global train limiter is exhausted.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.trainer == nil {
		rw.EngineError(ErrTrainerUnavailable)
		return
	}
	if h.engine.Status().IsTraining {
		rw.EngineError(recommend.ErrTrainingInProgress)
		return
	}
	if h.trainLimiter != nil && !h.trainLimiter.Allow() {
		metrics.RecordRateLimitHit("/api/v1/models/train")
		rw.TooManyRequests("Training was requested too recently")
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		ctx := logging.ContextWithRequestID(h.baseCtx, requestID)
		report, err := h.trainer.Train(ctx, "api")
		switch {
		case errors.Is(err, recommend.ErrTrainingInProgress):
			logging.Ctx(ctx).Info().Msg("training request skipped, a run is already active")
		case err != nil:
			logging.Ctx(ctx).Error().Err(err).Msg("requested training failed")
		default:
			logging.Ctx(ctx).Info().Int("version", report.Version).Msg("requested training completed")
		}
	}()

	rw.Accepted(map[string]string{
		"message": "Training started",
	})
}

// TrainingStatus handles GET /api/v1/models/status.
func (h *Handler) TrainingStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Status())
}

// ListRuns handles GET /api/v1/models/runs?limit=N.
// Reports are returned newest first; limit defaults to 20.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.runs == nil {
		rw.ServiceUnavailable("Training ledger is not configured")
		return
	}

	req := RunsRequest{Limit: 20}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("limit must be an integer")
			return
		}
		req.Limit = n
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	reports, err := h.runs.List(ctx, req.Limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to list training runs")
		rw.EngineError(err)
		return
	}
	if reports == nil {
		reports = []*recommend.TrainingReport{}
	}
	rw.List(reports, len(reports))
}

// GetRun handles GET /api/v1/models/runs/{version}.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.runs == nil {
		rw.ServiceUnavailable("Training ledger is not configured")
		return
	}

	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		rw.BadRequest("version must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	report, err := h.runs.Get(ctx, version)
	if err != nil {
		rw.EngineError(err)
		return
	}
	rw.Success(report)
}
