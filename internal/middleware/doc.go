// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package middleware provides HTTP middleware components for the API server.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging
    context as request_id and correlation_id
  - Prometheus Metrics: request count, latency and in-flight instrumentation

Both are written as func(http.HandlerFunc) http.HandlerFunc and adapted to
chi's r.Use by the api package:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Endpoint labels use the chi route pattern, so /api/v1/models/runs/7 and
/api/v1/models/runs/8 share the label /api/v1/models/runs/{version}.
Requests that match no route are labelled "unmatched".

Thread Safety:

All middleware is stateless per request and safe for concurrent use.
*/
package middleware
