// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are package-level and registered with the default registry through
promauto. The pipeline packages never import this package; the HTTP layer,
the supervision services and the CLI record outcomes after calling into them.

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

API Metrics:
  - finsegment_api_requests_total: Total API requests (counter)
    Labels: method, endpoint (route pattern), status_code
  - finsegment_api_request_duration_seconds: Request latency (histogram)
  - finsegment_api_active_requests: Active requests (gauge)
  - finsegment_api_rate_limit_hits_total: Rate limit rejections (counter)

Inference Metrics:
  - finsegment_predictions_total: Inference calls (counter)
    Labels: result (success, invalid, not_ready, schema_mismatch, error)
  - finsegment_prediction_duration_seconds: Pipeline latency (histogram)
  - finsegment_recommended_products_total: Predicted products (counter)
    Labels: category, product
  - finsegment_segment_assignments_total: Segment assignments (counter)
    Labels: cluster

Training Metrics:
  - finsegment_training_runs_total: Runs (counter)
    Labels: trigger (startup, api, schedule, cli), result
  - finsegment_training_duration_seconds: Run duration (histogram)
  - finsegment_training_rows: Used and dropped rows of the last run (gauge)
  - finsegment_training_last_success_timestamp_seconds (gauge)
  - finsegment_segment_silhouette: Silhouette of the last segmentation (gauge)
  - finsegment_classifier_accuracy: Held-out accuracy per category (gauge)

Bundle and Event Metrics:
  - finsegment_bundle_version, finsegment_bundle_ready (gauges)
  - finsegment_bundle_reloads_total: Labels trigger, result (swapped, stale, failure)
  - finsegment_events_published_total: Labels result
  - finsegment_circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - finsegment_circuit_breaker_state_transitions_total

# Example Queries

Inference error ratio:

	sum(rate(finsegment_predictions_total{result!="success"}[5m]))
	  / sum(rate(finsegment_predictions_total[5m]))

Time since the last successful training run:

	time() - finsegment_training_last_success_timestamp_seconds

# Cardinality

The endpoint label is the chi route pattern ("/api/v1/models/runs/{version}"),
never the raw path. Product and category labels come from the fixed catalog.
*/
package metrics
