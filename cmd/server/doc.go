// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Command server serves customer segment assignments and product
recommendations over HTTP.

# Process layout

	finsegment
	├── data-layer
	│   ├── retrain-service   (startup and scheduled training)
	│   └── bundle-reloader   (bundle-published events → hot swap)
	└── api-layer
	    └── http-server

Startup order:

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Bundle store, Badger run ledger, event bus (in-process or NATS)
 4. Recommendation engine wired to all three
 5. Latest stored bundle loaded when models.load_on_start is set
 6. Supervisor tree with the services above

When no bundle could be loaded and training.on_startup is set, the retrain
service trains once before the schedule starts. Until a bundle is served,
/health and the recommendation endpoints answer 503.

# Configuration

Common environment variables:

	FINSEGMENT_HTTP_PORT   listen port (default 8000)
	MODEL_DIR              bundle directory
	MODEL_KEEP_VERSIONS    bundle versions retained after training
	DATASET_PATH           CSV or Parquet training data; empty is synthetic
	TRAINING_INTERVAL      scheduled retraining, e.g. 24h; 0 disables
	TRAINING_SEED          seed for k-means, the split and synthetic data
	KMEANS_CLUSTERS        segment count
	NATS_URL               share bundle events across processes
	LOG_LEVEL, LOG_FORMAT  zerolog level and json|console

# Signals

SIGINT and SIGTERM stop the tree. The HTTP server drains for
server.shutdown_timeout, then waits for any training started through the
API to observe cancellation.
*/
package main
