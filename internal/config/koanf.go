// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/runs"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/finsegment/config.yaml",
	"/etc/finsegment/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			TrainInterval:   time.Minute,
			TrainBurst:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Models: ModelsConfig{
			Dir:         "./models",
			Keep:        10,
			LoadOnStart: true,
		},
		Training: TrainingConfig{
			OnStartup: true,
		},
		Runs: runs.Config{
			Path: "./data/runs",
		},
		Events:    *events.DefaultConfig(),
		Recommend: *recommend.DefaultConfig(),
	}
}

// Load loads configuration using Koanf with a layered approach:
//  1. Defaults
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override mapped settings
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile loads configuration with an explicit YAML file. An empty path
// skips the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"finsegment_http_host":      "server.host",
	"finsegment_http_port":      "server.port",
	"http_port":                 "server.port",
	"server_read_timeout":       "server.read_timeout",
	"server_write_timeout":      "server.write_timeout",
	"server_shutdown_timeout":   "server.shutdown_timeout",
	"environment":               "server.environment",
	"cors_origins":              "security.cors_origins",
	"rate_limit_reqs":           "security.rate_limit_reqs",
	"rate_limit_window":         "security.rate_limit_window",
	"disable_rate_limit":        "security.rate_limit_disabled",
	"train_rate_limit_interval": "security.train_interval",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Models and data
	"model_dir":           "models.dir",
	"model_keep_versions": "models.keep",
	"model_load_on_start": "models.load_on_start",
	"dataset_path":        "dataset.path",
	"dataset_samples":     "dataset.samples",
	"training_interval":   "training.interval",
	"train_on_startup":    "training.on_startup",
	"runs_path":           "runs.path",
	"runs_in_memory":      "runs.in_memory",

	// Events
	"nats_url":      "events.url",
	"events_topic":  "events.topic",
	"events_source": "events.source",

	// Recommendation pipeline
	"training_seed":          "recommend.seed",
	"kmeans_clusters":        "recommend.clustering.k",
	"kmeans_restarts":        "recommend.clustering.restarts",
	"kmeans_max_iterations":  "recommend.clustering.max_iterations",
	"strict_cluster_range":   "recommend.clustering.strict_range",
	"tree_max_depth":         "recommend.tree.max_depth",
	"tree_min_samples_split": "recommend.tree.min_samples_split",
	"training_test_fraction": "recommend.training.test_fraction",
	"training_max_drop_rate": "recommend.training.max_drop_rate",
	"training_timeout":       "recommend.training.timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - FINSEGMENT_HTTP_PORT -> server.port
//   - MODEL_DIR -> models.dir
//   - KMEANS_CLUSTERS -> recommend.clustering.k
//   - NATS_URL -> events.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
