// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/report"
)

func count(n int) string {
	return humanize.Comma(int64(n))
}

func percent(f float64) string {
	return humanize.FormatFloat("#,###.##", f*100) + "%"
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printClusters(w io.Writer, m *recommend.ClusterMetrics) {
	fmt.Fprintf(w, "Segments:   k=%d inertia=%.2f silhouette=%.4f davies-bouldin=%.4f calinski-harabasz=%.2f\n",
		m.K, m.Inertia, m.Silhouette, m.DaviesBouldin, m.CalinskiHarabasz)
	if len(m.Sizes) > 0 {
		fmt.Fprint(w, "Sizes:     ")
		for c, n := range m.Sizes {
			fmt.Fprintf(w, " %d=%s", c, count(n))
		}
		fmt.Fprintln(w)
	}
}

func printCategories(w io.Writer, cats []recommend.CategoryMetrics) {
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tACCURACY\tPRECISION\tRECALL\tF1\tSUPPORT")
	for _, m := range cats {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			m.Category, m.Accuracy, m.Precision, m.Recall, m.F1, count(m.Support))
	}
	_ = tw.Flush()
}

// writeReport stores an xlsx report and prints where it went.
func writeReport(w io.Writer, path string, data []byte) error {
	if err := report.WriteFile(path, data); err != nil {
		return err
	}
	fmt.Fprintf(w, "Report:     %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}
