// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/finsegment/internal/api"
	"github.com/tomtom215/finsegment/internal/config"
	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/supervisor"
	"github.com/tomtom215/finsegment/internal/supervisor/services"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogConfig())

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Msg("Starting finsegment with supervisor tree")
	metrics.SetAppInfo(version, runtime.Version())
	metrics.SetBundle(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comps, err := initRecommend(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	defer comps.Close()

	loaded := loadInitialBundle(ctx, cfg, comps.Engine)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === DATA LAYER ===

	retrainer := services.NewRetrainService(comps.Engine,
		func() (recommend.RowSource, error) { return comps.Source, nil },
		services.RetrainConfig{
			Interval:  cfg.Training.Interval,
			OnStartup: cfg.Training.OnStartup && !loaded,
			Timeout:   cfg.Recommend.Training.Timeout,
		},
		logging.Logger(),
	)
	if cfg.Training.Interval > 0 || (cfg.Training.OnStartup && !loaded) {
		tree.AddDataService(retrainer)
		logging.Info().Dur("interval", cfg.Training.Interval).Msg("Retrain service added to supervisor tree")
	} else if !loaded {
		logging.Warn().Msg("No bundle loaded and startup training disabled; serving 503 until POST /api/v1/models/train")
	}

	reloader := events.NewReloader(comps.Bus, comps.Engine, logging.Logger())
	reloader.OnReload(services.RecordEventReload)
	tree.AddDataService(services.NewBundleReloadService(reloader))

	// === API LAYER ===

	handler := api.NewHandler(comps.Engine, api.HandlerConfig{
		ServiceName:    "finsegment",
		Version:        version,
		RequestTimeout: cfg.Server.WriteTimeout,
		TrainInterval:  cfg.Security.TrainInterval,
		TrainBurst:     cfg.Security.TrainBurst,
	})
	handler.SetRuns(comps.Runs)
	handler.SetTrainer(retrainer)
	handler.SetBaseContext(ctx)

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitReqs
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwCfg))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	httpSvc := services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)
	httpSvc.OnShutdown(handler.Wait)
	tree.AddAPIService(httpSvc)
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	start := time.Now()
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
		cancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Dur("uptime", time.Since(start)).Msg("Application stopped gracefully")
}
