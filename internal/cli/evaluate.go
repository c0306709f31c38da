// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/finsegment/internal/dataset"
	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/report"
)

func newEvaluateCommand(a *app) *cobra.Command {
	var (
		data       string
		version    int
		samples    int
		seed       int64
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a stored bundle on a labelled dataset",
		Long: `Evaluate loads a stored bundle and runs every row of a labelled dataset
through the inference pipeline, reporting segment quality and per-category
classification metrics.

Without --data a synthetic holdout is generated. Its seed defaults to the
bundle seed plus one so it differs from the synthetic training stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.close()

			b, err := s.engine.LoadBundle(cmd.Context(), version)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = b.Seed + 1
			}
			src, err := dataset.Open(data, samples, seed, logging.Logger())
			if err != nil {
				return err
			}

			r, err := recommend.EvaluateBundle(cmd.Context(), b, src, a.cfg.Recommend.Training.SilhouetteSample)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Evaluated bundle v%d\n", r.BundleVersion)
			fmt.Fprintf(w, "Rows:       %s total, %s used, %s dropped\n",
				count(r.TotalRows), count(r.UsedRows), count(r.DroppedRows))
			printClusters(w, &r.Clusters)
			printCategories(w, r.Categories)

			if reportPath == "" {
				return nil
			}
			wb, err := report.EvaluationWorkbook(r)
			if err != nil {
				return err
			}
			return writeReport(w, reportPath, wb)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Labelled dataset (.csv or .parquet)")
	cmd.Flags().IntVar(&version, "version", 0, "Bundle version (0 = latest)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Synthetic customers when no dataset is given")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Synthetic holdout seed")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an xlsx evaluation report")
	return cmd
}
