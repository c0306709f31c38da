// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package config provides layered configuration for the Finsegment server and
CLI.

# Configuration Sources

Configuration is assembled with Koanf v2 in three layers, each overriding
the previous one:

  - Defaults: Default() (loaded through the structs provider)
  - YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
  - Environment variables: only the names listed in the mapping table

# Configuration Structure

  - Server: listen address, timeouts, environment
  - Security: CORS origins, per-IP rate limit, manual training limiter
  - Logging: level, format, caller info
  - Models: bundle directory, retained versions, load on start
  - Dataset: training file (CSV or Parquet) or synthetic sample count
  - Training: periodic retraining interval
  - Runs: Badger training ledger
  - Events: bundle-published notifications (gochannel or NATS)
  - Recommend: clustering, classifier and training pipeline parameters

# Environment Variables

	FINSEGMENT_HTTP_PORT=8000
	MODEL_DIR=/var/lib/finsegment/models
	DATASET_PATH=/data/customers.parquet
	TRAINING_SEED=42
	KMEANS_CLUSTERS=5
	TRAINING_INTERVAL=24h
	NATS_URL=nats://nats:4222
	LOG_LEVEL=debug
	CORS_ORIGINS=https://app.example.com,https://admin.example.com

# Validation

Load returns an error when any section is invalid, including the
recommendation parameters (cluster count, health score weights, tree limits,
test fraction and drop-rate bounds).
*/
package config
