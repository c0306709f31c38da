// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/runs"
)

func newRunsCommand(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs [version]",
		Short: "List recorded training runs",
		Long: `Runs lists training reports from the run ledger, newest first. With a
version argument it prints that run's full report as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := runs.Open(&a.cfg.Runs, logging.Logger())
			if err != nil {
				return fmt.Errorf("open run ledger: %w", err)
			}
			defer func() { _ = ledger.Close() }()

			w := cmd.OutOrStdout()
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")

			if len(args) == 1 {
				version, err := strconv.Atoi(args[0])
				if err != nil || version <= 0 {
					return fmt.Errorf("invalid version %q", args[0])
				}
				r, err := ledger.Get(cmd.Context(), version)
				if err != nil {
					return err
				}
				return enc.Encode(r)
			}

			reports, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if reports == nil {
					reports = []*recommend.TrainingReport{}
				}
				return enc.Encode(reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(w, "No training runs recorded")
				return nil
			}

			tw := newTable(w)
			fmt.Fprintln(tw, "VERSION\tRUN ID\tCOMPLETED\tROWS\tDROPPED\tK\tSILHOUETTE")
			for _, r := range reports {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%.4f\n",
					r.Version, r.RunID, ago(r.CompletedAt), count(r.UsedRows), count(r.DroppedRows),
					r.Clusters.K, r.Clusters.Silhouette)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print reports as JSON")
	return cmd
}
