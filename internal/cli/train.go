// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/finsegment/internal/dataset"
	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/report"
)

func newTrainCommand(a *app) *cobra.Command {
	var (
		data       string
		samples    int
		reportPath string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train, persist and publish a new bundle",
		Long: `Train runs the full training pipeline on a dataset and stores the
resulting bundle as the next version. The run is recorded in the ledger and
announced on the event bus.

Without --data (or dataset.path) the pipeline trains on synthetic customers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if data == "" {
				data = a.cfg.Dataset.Path
			}
			if !cmd.Flags().Changed("samples") {
				samples = a.cfg.Dataset.Samples
			}

			src, err := dataset.Open(data, samples, a.cfg.Recommend.EffectiveSeed(), logging.Logger())
			if err != nil {
				return err
			}
			s, err := a.openSession(true)
			if err != nil {
				return err
			}
			defer s.close()

			r, err := s.engine.Train(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Trained bundle v%d (run %s) in %s\n", r.Version, r.RunID,
				(time.Duration(r.DurationMS) * time.Millisecond).String())
			fmt.Fprintf(w, "Rows:       %s total, %s used, %s dropped (%s)\n",
				count(r.TotalRows), count(r.UsedRows), count(r.DroppedRows), percent(r.DropRate))
			fmt.Fprintf(w, "Split:      %s train / %s test\n", count(r.TrainRows), count(r.TestRows))
			printClusters(w, &r.Clusters)
			printCategories(w, r.Categories)

			if reportPath == "" {
				return nil
			}
			wb, err := report.TrainingWorkbook(r)
			if err != nil {
				return err
			}
			return writeReport(w, reportPath, wb)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Training dataset (.csv or .parquet)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Synthetic customers when no dataset is given")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an xlsx training report")
	return cmd
}
