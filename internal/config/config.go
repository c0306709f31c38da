// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/runs"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Configuration Categories:
//
//  1. Models:
//     - Recommend: clustering, classifier and training pipeline parameters
//     - Models: bundle store location and retention
//     - Dataset: where training rows come from
//     - Training: periodic retraining schedule
//
//  2. Infrastructure:
//     - Runs: Badger training ledger
//     - Events: bundle-published notifications (in-process or NATS)
//     - Server: HTTP server configuration
//
//  3. API & Security:
//     - Security: CORS and rate limiting
//
//  4. Observability:
//     - Logging: Log levels and output formats
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Security  SecurityConfig   `koanf:"security"`
	Logging   LoggingConfig    `koanf:"logging"`
	Models    ModelsConfig     `koanf:"models"`
	Dataset   DatasetConfig    `koanf:"dataset"`
	Training  TrainingConfig   `koanf:"training"`
	Runs      runs.Config      `koanf:"runs"`
	Events    events.Config    `koanf:"events"`
	Recommend recommend.Config `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // "development", "staging", "production"
}

// SecurityConfig holds CORS and rate limit settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// TrainInterval is the minimum spacing between manual training requests.
	TrainInterval time.Duration `koanf:"train_interval"`
	TrainBurst    int           `koanf:"train_burst"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// ModelsConfig locates persisted bundles
type ModelsConfig struct {
	Dir string `koanf:"dir"`

	// Keep is the number of bundle versions retained after each training
	// run. Zero keeps every version.
	Keep int `koanf:"keep"`

	// LoadOnStart loads the latest stored bundle when the server starts.
	LoadOnStart bool `koanf:"load_on_start"`
}

// DatasetConfig selects the training data source
type DatasetConfig struct {
	// Path is a CSV or Parquet file. Empty trains on synthetic data.
	Path string `koanf:"path"`

	// Samples is the synthetic row count. Zero draws a count in the
	// generator's default range.
	Samples int `koanf:"samples"`
}

// TrainingConfig holds the retraining schedule
type TrainingConfig struct {
	// Interval between scheduled retraining runs. Zero disables them.
	Interval time.Duration `koanf:"interval"`

	// OnStartup trains once at startup when no bundle could be loaded.
	OnStartup bool `koanf:"on_startup"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
