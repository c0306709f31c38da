// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/middleware"
)

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()
	router := testRouter(NewHandler(&fakeEngine{}, testHandlerConfig()))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown route", http.MethodGet, "/api/v1/nope", http.StatusNotFound, ErrCodeNotFound},
		{"GET on POST route", http.MethodGet, "/api/v1/recommendations", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"DELETE on models", http.MethodDelete, "/api/v1/models/versions", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestRouter_RequestIDPropagates(t *testing.T) {
	t.Parallel()
	router := testRouter(NewHandler(&fakeEngine{}, testHandlerConfig()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(middleware.RequestIDHeader); got != "req-abc-123" {
		t.Errorf("response header = %q, want req-abc-123", got)
	}
	if env := decodeEnvelope(t, rec); env.Meta.RequestID != "req-abc-123" {
		t.Errorf("meta.request_id = %q, want req-abc-123", env.Meta.RequestID)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Parallel()
	router := testRouter(NewHandler(&fakeEngine{}, testHandlerConfig()))

	rec := do(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "finsegment_bundle_ready") {
		t.Error("metrics output missing finsegment_bundle_ready")
	}
}

func TestRouter_RecordsRoutePattern(t *testing.T) {
	h := NewHandler(&fakeEngine{}, testHandlerConfig())
	h.SetRuns(&fakeRuns{})
	router := testRouter(h)

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/v1/models/runs/{version}", "404")
	before := testutil.ToFloat64(counter)
	do(t, router, http.MethodGet, "/api/v1/models/runs/41", nil)
	do(t, router, http.MethodGet, "/api/v1/models/runs/42", nil)
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("counter delta = %v, want 2", got)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	router := testRouter(NewHandler(&fakeEngine{}, testHandlerConfig()))

	tests := []struct {
		origin string
		want   string
	}{
		{"https://example.com", "https://example.com"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	router := NewRouter(NewHandler(&fakeEngine{}, testHandlerConfig()), NewChiMiddleware(cfg)).SetupChi()

	for i := range 2 {
		if rec := do(t, router, http.MethodGet, "/api/v1/models/status", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := do(t, router, http.MethodGet, "/api/v1/models/status", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("code = %s", env.Error.Code)
	}

	// health probes are never limited
	for range 5 {
		if rec := do(t, router, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
			t.Fatalf("health status = %d, want 200", rec.Code)
		}
	}
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	t.Parallel()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	cfg.RateLimitDisabled = true
	router := NewRouter(NewHandler(&fakeEngine{}, testHandlerConfig()), NewChiMiddleware(cfg)).SetupChi()

	for i := range 5 {
		if rec := do(t, router, http.MethodGet, "/api/v1/models/status", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}
