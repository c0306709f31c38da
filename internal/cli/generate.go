// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/finsegment/internal/dataset"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		out     string
		samples int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a labelled synthetic customer dataset",
		Long: `Generate writes synthetic customers with rule-based product labels.

The format follows the file extension (.csv or .parquet). Without --samples
the row count is drawn from [500, 1000] using the seed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Recommend.EffectiveSeed()
			}
			rows := dataset.NewGenerator(seed).Generate(samples)
			if err := dataset.Write(cmd.Context(), out, rows); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			size := "unknown size"
			if info, err := os.Stat(out); err == nil {
				size = humanize.Bytes(uint64(info.Size())) //nolint:gosec // G115: file sizes are non-negative
			}
			fmt.Fprintf(w, "Wrote %s customers to %s (%s, seed %d)\n", count(len(rows)), out, size, seed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "customers.csv", "Output file (.csv or .parquet)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Number of customers (0 draws from [500, 1000])")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Generator seed (default: recommend.seed)")
	return cmd
}
