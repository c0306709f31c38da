// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package services

import (
	"context"

	"github.com/tomtom215/finsegment/internal/metrics"
)

// EventRunner consumes events until its context ends. *events.Reloader
// satisfies it.
type EventRunner interface {
	RunWithContext(ctx context.Context) error
}

// BundleReloadService supervises the bundle event subscriber. When the
// subscription drops the runner returns an error and suture restarts it.
type BundleReloadService struct {
	runner EventRunner
	name   string
}

// NewBundleReloadService wraps runner.
func NewBundleReloadService(runner EventRunner) *BundleReloadService {
	return &BundleReloadService{runner: runner, name: "bundle-reloader"}
}

// Serve implements suture.Service.
func (s *BundleReloadService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer.
func (s *BundleReloadService) String() string {
	return s.name
}

// RecordEventReload is a reload hook that records event-driven reloads and
// keeps the served bundle gauges current.
func RecordEventReload(version int, swapped bool, err error) {
	metrics.RecordReload("event", swapped, err)
	if swapped && err == nil {
		metrics.SetBundle(version)
	}
}
