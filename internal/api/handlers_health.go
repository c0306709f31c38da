// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the flat body of GET /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	ModelsLoaded  bool    `json:"models_loaded"`
	BundleVersion int     `json:"bundle_version"`
	Uptime        float64 `json:"uptime_seconds"`
}

// Health handles GET /health.
//
// Returns 200 with status "ok" when a bundle is loaded, otherwise 503 with
// status "degraded". The body is not enveloped so load balancers can match
// on it directly.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "ok",
		Service: h.config.ServiceName,
		Version: h.config.Version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if b := h.engine.Current(); b != nil {
		health.ModelsLoaded = true
		health.BundleVersion = b.Version
	}

	status := http.StatusOK
	if !health.ModelsLoaded {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK as long as the process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 OK only if a model bundle is loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.engine.Ready() {
		rw.ServiceUnavailable("No model bundle is loaded")
		return
	}

	data := map[string]interface{}{
		"ready_to_serve": true,
		"uptime":         time.Since(h.startTime).Seconds(),
	}
	if b := h.engine.Current(); b != nil {
		data["bundle_version"] = b.Version
	}
	rw.Success(data)
}
