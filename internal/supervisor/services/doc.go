// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package services adapts finsegment components to suture's Serve(ctx) error
lifecycle.

# Services

HTTPServerService wraps *http.Server. Cancellation calls Shutdown with its
own deadline, then runs OnShutdown hooks.

BundleReloadService runs an events.Reloader. A closed subscription is
returned as an error so the supervisor reconnects with backoff.
RecordEventReload is the matching reload hook for metrics.

RetrainService owns every training run in the server process. Its Train
method is the api.Trainer behind POST /api/v1/models/train, and Serve runs
the optional startup run and the periodic schedule:

	svc := services.NewRetrainService(engine, func() (recommend.RowSource, error) {
	    return dataset.Open(cfg.Dataset.Path, cfg.Dataset.Samples, seed, log.Logger)
	}, services.RetrainConfig{Interval: cfg.Training.Interval}, log.Logger)
	handler.SetTrainer(svc)
	tree.AddDataService(svc)

All three implement fmt.Stringer so suture events name them.
*/
package services
