// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package supervisor runs the long-lived finsegment services under a suture v4
supervision tree.

# Layout

	finsegment
	├── data-layer
	│   ├── BundleReloadService   (bundle-published events → hot swap)
	│   └── RetrainService        (when training.interval > 0)
	└── api-layer
	    └── HTTPServerService

Each layer counts failures independently, so a reload subscriber that loses
its NATS connection is restarted with backoff while the API keeps serving the
bundle it already holds.

# Usage

	tree, err := supervisor.NewSupervisorTree(
	    slog.New(logging.NewSlogHandler(log.Logger)),
	    supervisor.DefaultTreeConfig(),
	)
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewBundleReloadService(reloader))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    log.Error().Err(err).Msg("supervisor stopped")
	}

Supervisor events (restarts, backoff, panics) are logged through sutureslog
on the slog handler passed to NewSupervisorTree.
*/
package supervisor
