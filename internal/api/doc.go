// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package api provides the HTTP surface of the segmentation and recommendation
service.

The package exposes the inference pipeline and the model lifecycle (bundle
inspection, reload, training, training ledger) over a Chi router with
go-chi/cors, go-chi/httprate and Prometheus instrumentation.

# Endpoints

	GET  /health                          flat health body, 503 until a bundle is loaded
	GET  /api/v1/health/live              liveness
	GET  /api/v1/health/ready             readiness (bundle loaded)
	POST /api/v1/recommendations          profile in, recommendations out
	POST /predict                         alias of /api/v1/recommendations
	GET  /api/v1/models                   current bundle summary
	GET  /api/v1/models/versions          persisted bundle versions
	POST /api/v1/models/reload?version=N  load and swap a stored bundle (0 = latest)
	POST /api/v1/models/train             start a background training run (202)
	GET  /api/v1/models/status            training status
	GET  /api/v1/models/runs?limit=N      training ledger, newest first
	GET  /api/v1/models/runs/{version}    one ledger report
	GET  /metrics                         Prometheus

# Response Format

Every endpoint except /health and /metrics answers with the envelope:

	{
	  "success": true,
	  "data": { ... },
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 1}
	}

Errors carry a machine-readable code:

	{
	  "success": false,
	  "error": {"code": "VALIDATION_ERROR", "message": "credit_score must be ...", "details": {...}},
	  "meta": { ... }
	}

Engine errors map to status codes as follows:

	recommend.ErrModelNotReady       503 SERVICE_UNAVAILABLE
	recommend.ErrSchemaMismatch      500 SCHEMA_MISMATCH
	recommend.ErrTrainingInProgress  409 CONFLICT
	recommend.ErrTrainingData        422 VALIDATION_ERROR
	storage.ErrModelNotFound         404 NOT_FOUND
	runs.ErrRunNotFound              404 NOT_FOUND

# Rate Limiting

Inference and model routes share a per-IP httprate limiter. Training
additionally passes a global golang.org/x/time/rate limiter so that a burst
of requests cannot queue back-to-back runs. Health probes are never limited.

# Thread Safety

Handlers are safe for concurrent use. Inference reads the bundle through
the engine's atomic handle, so a reload or training run never blocks or
tears an in-flight prediction.
*/
package api
