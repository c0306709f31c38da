// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/finsegment/internal/config"
	"github.com/tomtom215/finsegment/internal/logging"
)

// app carries the global flags and the configuration loaded from them.
type app struct {
	configPath string
	modelsDir  string
	runsPath   string
	logLevel   string

	cfg *config.Config
}

// NewRootCommand builds the finsegment command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "finsegment",
		Short: "Customer segmentation and product recommendation",
		Long: `finsegment trains, evaluates and inspects customer segmentation bundles.

A bundle holds the feature scaler, the k-means segmentation model and one
decision tree per product category. Bundles trained here are written to the
same model directory the server loads from, and training publishes a
bundle-published event so running servers hot swap the new version.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default: CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&a.modelsDir, "models-dir", "", "Bundle directory (overrides models.dir)")
	root.PersistentFlags().StringVar(&a.runsPath, "runs-path", "", "Run ledger directory (overrides runs.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides logging.level)")

	root.AddCommand(
		newGenerateCommand(a),
		newTrainCommand(a),
		newEvaluateCommand(a),
		newModelsCommand(a),
		newRunsCommand(a),
	)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("finsegment version %s\n", version))
	return root
}

// load reads the configuration, applies flag overrides and configures
// logging. Logs go to stderr so stdout carries only command output.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if a.modelsDir != "" {
		cfg.Models.Dir = a.modelsDir
	}
	if a.runsPath != "" {
		cfg.Runs.Path = a.runsPath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logCfg := cfg.LogConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Init(logCfg)

	a.cfg = cfg
	return nil
}
