// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// shortChecksum is the checksum prefix shown in listings.
const shortChecksum = 12

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List stored bundle versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.close()

			versions, err := s.engine.Versions(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintf(w, "No bundles in %s\n", a.cfg.Models.Dir)
				return nil
			}

			tw := newTable(w)
			fmt.Fprintln(tw, "VERSION\tTRAINED\tROWS\tSIZE\tSEED\tCHECKSUM")
			for _, m := range versions {
				sum := m.Checksum
				if len(sum) > shortChecksum {
					sum = sum[:shortChecksum]
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
					m.Version, ago(m.TrainedAt), count(m.RowCount),
					humanize.Bytes(uint64(m.SizeBytes)), m.Seed, sum) //nolint:gosec // G115: sizes are non-negative
			}
			return tw.Flush()
		},
	}
}
