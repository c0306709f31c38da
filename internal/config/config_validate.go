// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/finsegment/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
		c.validateModels,
		c.validateTraining,
		c.Runs.Validate,
		c.Events.Validate,
		c.Recommend.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	timeouts := map[string]time.Duration{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("server.%s must be positive, got %v", name, d)
		}
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

// validateSecurity validates CORS and rate limiting configuration
func (c *Config) validateSecurity() error {
	if c.Server.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain \"*\" in production")
			}
		}
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	if c.Security.TrainInterval <= 0 {
		return fmt.Errorf("security.train_interval must be positive, got %v", c.Security.TrainInterval)
	}
	if c.Security.TrainBurst < 1 {
		return fmt.Errorf("security.train_burst must be at least 1, got %d", c.Security.TrainBurst)
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateModels validates the bundle store configuration
func (c *Config) validateModels() error {
	if c.Models.Dir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}
	if c.Models.Keep < 0 {
		return fmt.Errorf("models.keep must not be negative, got %d", c.Models.Keep)
	}
	if c.Dataset.Samples < 0 {
		return fmt.Errorf("dataset.samples must not be negative, got %d", c.Dataset.Samples)
	}
	return nil
}

// validateTraining validates the retraining schedule
func (c *Config) validateTraining() error {
	if c.Training.Interval < 0 {
		return fmt.Errorf("TRAINING_INTERVAL must not be negative, got %v", c.Training.Interval)
	}
	if c.Training.Interval > 0 && c.Training.Interval < time.Minute {
		return fmt.Errorf("TRAINING_INTERVAL must be at least 1m, got %v", c.Training.Interval)
	}
	return nil
}

// LogConfig converts the logging section for logging.Init.
func (c *Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
