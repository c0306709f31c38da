// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/metrics"
)

var _ suture.Service = (*BundleReloadService)(nil)

type newestTarget struct {
	served atomic.Int64
}

func (n *newestTarget) ReloadIfNewer(_ context.Context, version int) (bool, error) {
	for {
		cur := n.served.Load()
		if int64(version) <= cur {
			return false, nil
		}
		if n.served.CompareAndSwap(cur, int64(version)) {
			return true, nil
		}
	}
}

func TestBundleReloadService_HotSwapsPublishedVersion(t *testing.T) {
	bus, err := events.NewChannelBus(events.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewChannelBus() error = %v", err)
	}
	defer func() { _ = bus.Close() }()

	target := &newestTarget{}
	reloader := events.NewReloader(bus, target, zerolog.Nop())
	reloader.OnReload(RecordEventReload)
	svc := NewBundleReloadService(reloader)
	if svc.String() != "bundle-reloader" {
		t.Errorf("String() = %q", svc.String())
	}

	swapped := metrics.BundleReloads.WithLabelValues("event", metrics.ReloadSwapped)
	before := testutil.ToFloat64(swapped)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	// the in-process bus drops messages published before the subscription
	deadline := time.Now().Add(3 * time.Second)
	for testutil.ToFloat64(swapped)-before < 1 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("no swap recorded, served = %d", target.served.Load())
		}
		_ = bus.PublishBundle(ctx, 5, "run-5")
		time.Sleep(20 * time.Millisecond)
	}

	if got := target.served.Load(); got != 5 {
		t.Errorf("served = %d, want 5", got)
	}
	if got := testutil.ToFloat64(metrics.BundleVersion); got != 5 {
		t.Errorf("bundle version gauge = %v, want 5", got)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestRecordEventReload_Failure(t *testing.T) {
	failure := metrics.BundleReloads.WithLabelValues("event", metrics.ReloadFailure)
	before := testutil.ToFloat64(failure)
	RecordEventReload(3, false, errors.New("checksum mismatch"))
	if got := testutil.ToFloat64(failure) - before; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}
