// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/finsegment/internal/metrics"
)

func chiAdapter(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chiAdapter(PrometheusMetrics))
	r.Get("/api/v1/models/runs/{version}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/v1/models/runs/{version}", "404")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/api/v1/models/runs/7", "/api/v1/models/runs/8"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("pattern counter delta = %v, want 2", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chiAdapter(PrometheusMetrics))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("unmatched counter delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_StatusCapture(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"implicit ok", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) }, "200"},
		{"explicit created", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusAccepted) }, "202"},
		{"first status wins", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.WriteHeader(http.StatusOK)
		}, "503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/status/" + tt.want
			counter := metrics.APIRequestsTotal.WithLabelValues("POST", path, tt.want)
			before := testutil.ToFloat64(counter)

			// outside a chi router the raw path is the label
			rec := httptest.NewRecorder()
			PrometheusMetrics(tt.handler)(rec, httptest.NewRequest(http.MethodPost, path, nil))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("counter for status %s delta = %v, want 1", tt.want, got)
			}
		})
	}
}

func TestPrometheusMetrics_ActiveGaugeReturnsToBaseline(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)
	var during float64
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during < before+1 {
		t.Errorf("active during request = %v, want at least %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active after request = %v, want %v", after, before)
	}
}

func TestMetricsResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	if rw.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped writer")
	}
}
