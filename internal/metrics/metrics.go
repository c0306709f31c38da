// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Inference outcomes and predicted products
// - Training runs and the served bundle
// - Bundle reloads and bundle-published events

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finsegment_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Inference Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_predictions_total",
			Help: "Total number of inference calls by outcome",
		},
		[]string{"result"}, // "success", "invalid", "not_ready", "schema_mismatch", "error"
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finsegment_prediction_duration_seconds",
			Help:    "Inference pipeline duration in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		},
	)

	RecommendedProducts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_recommended_products_total",
			Help: "Total number of recommendations per category and product",
		},
		[]string{"category", "product"},
	)

	SegmentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_segment_assignments_total",
			Help: "Total number of profiles assigned to each customer segment",
		},
		[]string{"cluster"},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_training_runs_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"trigger", "result"}, // trigger: "startup", "api", "schedule", "cli"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finsegment_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
	)

	TrainingRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finsegment_training_rows",
			Help: "Rows in the last successful training run",
		},
		[]string{"kind"}, // "used", "dropped"
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_training_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	SegmentSilhouette = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_segment_silhouette",
			Help: "Silhouette score of the last trained segmentation",
		},
	)

	ClassifierAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finsegment_classifier_accuracy",
			Help: "Held-out accuracy of the last trained classifier per category",
		},
		[]string{"category"},
	)

	// Bundle Metrics
	BundleVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_bundle_version",
			Help: "Version of the model bundle being served (0 when none)",
		},
	)

	BundleReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_bundle_ready",
			Help: "Whether a model bundle is loaded (1) or not (0)",
		},
	)

	BundleReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_bundle_reloads_total",
			Help: "Total number of bundle reload attempts",
		},
		[]string{"trigger", "result"}, // result: "swapped", "stale", "failure"
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_events_published_total",
			Help: "Total number of bundle-published events by outcome",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finsegment_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finsegment_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finsegment_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finsegment_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Prediction outcomes.
const (
	PredictionSuccess        = "success"
	PredictionInvalid        = "invalid"
	PredictionNotReady       = "not_ready"
	PredictionSchemaMismatch = "schema_mismatch"
	PredictionError          = "error"
)

// Reload outcomes.
const (
	ReloadSwapped = "swapped"
	ReloadStale   = "stale"
	ReloadFailure = "failure"
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordPrediction records one inference call. cluster is ignored unless the
// result is a success.
func RecordPrediction(result string, cluster int, duration time.Duration) {
	PredictionsTotal.WithLabelValues(result).Inc()
	if result != PredictionSuccess {
		return
	}
	PredictionDuration.Observe(duration.Seconds())
	SegmentAssignments.WithLabelValues(strconv.Itoa(cluster)).Inc()
}

// RecordRecommendedProduct counts one predicted product.
func RecordRecommendedProduct(category, product string) {
	RecommendedProducts.WithLabelValues(category, product).Inc()
}

// TrainingOutcome carries the values recorded for a successful run.
type TrainingOutcome struct {
	UsedRows   int
	Dropped    int
	Silhouette float64

	// Accuracy maps category name to held-out accuracy.
	Accuracy map[string]float64
}

// RecordTrainingRun records a finished training run. outcome is ignored when
// err is non-nil.
func RecordTrainingRun(trigger string, duration time.Duration, outcome *TrainingOutcome, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil || outcome == nil {
		TrainingRuns.WithLabelValues(trigger, "failure").Inc()
		return
	}

	TrainingRuns.WithLabelValues(trigger, "success").Inc()
	TrainingRows.WithLabelValues("used").Set(float64(outcome.UsedRows))
	TrainingRows.WithLabelValues("dropped").Set(float64(outcome.Dropped))
	TrainingLastSuccess.Set(float64(time.Now().Unix()))
	SegmentSilhouette.Set(outcome.Silhouette)
	for category, acc := range outcome.Accuracy {
		ClassifierAccuracy.WithLabelValues(category).Set(acc)
	}
}

// SetBundle updates the served bundle gauges. version 0 means none.
func SetBundle(version int) {
	BundleVersion.Set(float64(version))
	if version > 0 {
		BundleReady.Set(1)
	} else {
		BundleReady.Set(0)
	}
}

// RecordReload records a bundle reload attempt.
func RecordReload(trigger string, swapped bool, err error) {
	result := ReloadStale
	switch {
	case err != nil:
		result = ReloadFailure
	case swapped:
		result = ReloadSwapped
	}
	BundleReloads.WithLabelValues(trigger, result).Inc()
}

// RecordEventPublish records a bundle-published event attempt.
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("failure").Inc()
		return
	}
	EventsPublished.WithLabelValues("success").Inc()
}

// circuitBreakerStates maps gobreaker state names to gauge values.
var circuitBreakerStates = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// RecordCircuitBreakerTransition updates the breaker gauge and counts the
// transition. States are gobreaker state names.
func RecordCircuitBreakerTransition(name, from, to string) {
	if v, ok := circuitBreakerStates[to]; ok {
		CircuitBreakerState.WithLabelValues(name).Set(v)
	}
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// SetAppInfo publishes the build version.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
