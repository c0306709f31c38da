// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package report

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/finsegment/internal/recommend"
)

// Sheet names shared by training and evaluation workbooks.
const (
	SheetSummary     = "Summary"
	SheetClusters    = "Clusters"
	SheetClassifiers = "Classifiers"
	SheetClasses     = "Classes"

	// confusionPrefix is followed by the category wire name.
	confusionPrefix = "Confusion "
)

// ConfusionSheet returns the sheet name holding the confusion matrix of c.
func ConfusionSheet(c string) string {
	return confusionPrefix + c
}

// TrainingWorkbook renders a training report as an xlsx document.
func TrainingWorkbook(r *recommend.TrainingReport) ([]byte, error) {
	if r == nil {
		return nil, errors.New("training report is nil")
	}
	return build([][2]any{
		{"Run ID", r.RunID},
		{"Version", r.Version},
		{"Seed", r.Seed},
		{"Started", r.StartedAt.Format(time.RFC3339)},
		{"Completed", r.CompletedAt.Format(time.RFC3339)},
		{"Duration (ms)", r.DurationMS},
		{"Total rows", r.TotalRows},
		{"Used rows", r.UsedRows},
		{"Dropped rows", r.DroppedRows},
		{"Drop rate", r.DropRate},
		{"Train rows", r.TrainRows},
		{"Test rows", r.TestRows},
	}, r.Clusters, r.Categories)
}

// EvaluationWorkbook renders an evaluation report as an xlsx document.
func EvaluationWorkbook(r *recommend.EvaluationReport) ([]byte, error) {
	if r == nil {
		return nil, errors.New("evaluation report is nil")
	}
	return build([][2]any{
		{"Bundle version", r.BundleVersion},
		{"Evaluated", r.EvaluatedAt.Format(time.RFC3339)},
		{"Total rows", r.TotalRows},
		{"Used rows", r.UsedRows},
		{"Dropped rows", r.DroppedRows},
	}, r.Clusters, r.Categories)
}

// WriteFile writes data to path with mode 0o644.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: reports are not secret
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func build(summary [][2]any, clusters recommend.ClusterMetrics, cats []recommend.CategoryMetrics) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// NewFile starts with Sheet1; it becomes the summary.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	s := &sheet{f: f, name: SheetSummary, style: bold}
	s.header("Field", "Value")
	for _, kv := range summary {
		s.row(kv[0], kv[1])
	}
	s.row("Clusters", clusters.K)
	s.row("Inertia", clusters.Inertia)
	s.row("Silhouette", clusters.Silhouette)
	s.row("Davies-Bouldin", clusters.DaviesBouldin)
	s.row("Calinski-Harabasz", clusters.CalinskiHarabasz)
	if clusters.Iterations > 0 {
		s.row("Iterations", clusters.Iterations)
	}
	s.width("A", "A", 20)
	s.width("B", "B", 40)
	if s.err != nil {
		return nil, s.err
	}

	if err := writeClusters(f, bold, clusters); err != nil {
		return nil, err
	}
	if err := writeClassifiers(f, bold, cats); err != nil {
		return nil, err
	}
	for i := range cats {
		if err := writeConfusion(f, bold, &cats[i]); err != nil {
			return nil, err
		}
	}

	idx, _ := f.GetSheetIndex(SheetSummary)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeClusters(f *excelize.File, bold int, m recommend.ClusterMetrics) error {
	s, err := newSheet(f, SheetClusters, bold)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range m.Sizes {
		total += n
	}
	s.header("Cluster", "Size", "Share")
	for c, n := range m.Sizes {
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total)
		}
		s.row(c, n, share)
	}
	s.width("A", "C", 12)
	return s.err
}

func writeClassifiers(f *excelize.File, bold int, cats []recommend.CategoryMetrics) error {
	s, err := newSheet(f, SheetClassifiers, bold)
	if err != nil {
		return err
	}
	s.header("Category", "Accuracy", "Precision", "Recall", "F1", "Support")
	for _, m := range cats {
		s.row(m.Category, m.Accuracy, m.Precision, m.Recall, m.F1, m.Support)
	}
	s.width("A", "A", 18)
	s.width("B", "F", 12)
	if s.err != nil {
		return s.err
	}

	c, err := newSheet(f, SheetClasses, bold)
	if err != nil {
		return err
	}
	c.header("Category", "Label", "Precision", "Recall", "F1", "Support")
	for _, m := range cats {
		for _, cl := range m.Classes {
			c.row(m.Category, cl.Label, cl.Precision, cl.Recall, cl.F1, cl.Support)
		}
	}
	c.width("A", "A", 18)
	c.width("B", "B", 32)
	c.width("C", "F", 12)
	return c.err
}

// writeConfusion lays out true labels down column A and predicted labels
// across row 1.
func writeConfusion(f *excelize.File, bold int, m *recommend.CategoryMetrics) error {
	s, err := newSheet(f, ConfusionSheet(m.Category), bold)
	if err != nil {
		return err
	}
	head := make([]any, 0, len(m.Classes)+1)
	head = append(head, "true \\ predicted")
	for _, cl := range m.Classes {
		head = append(head, cl.Label)
	}
	s.header(head...)
	for i, counts := range m.Confusion {
		vals := make([]any, 0, len(counts)+1)
		label := strconv.Itoa(i)
		if i < len(m.Classes) {
			label = m.Classes[i].Label
		}
		vals = append(vals, label)
		for _, n := range counts {
			vals = append(vals, n)
		}
		s.row(vals...)
	}
	s.width("A", "A", 32)
	return s.err
}

// sheet appends rows to one worksheet and keeps the first error.
type sheet struct {
	f     *excelize.File
	name  string
	style int
	next  int
	err   error
}

func newSheet(f *excelize.File, name string, bold int) (*sheet, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("create sheet %q: %w", name, err)
	}
	return &sheet{f: f, name: name, style: bold}, nil
}

func (s *sheet) row(vals ...any) {
	if s.err != nil {
		return
	}
	s.next++
	for i, v := range vals {
		cell, err := excelize.CoordinatesToCellName(i+1, s.next)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			s.err = fmt.Errorf("sheet %q cell %s: %w", s.name, cell, err)
			return
		}
	}
}

func (s *sheet) header(vals ...any) {
	s.row(vals...)
	if s.err != nil || len(vals) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, s.next)
	last, _ := excelize.CoordinatesToCellName(len(vals), s.next)
	if err := s.f.SetCellStyle(s.name, first, last, s.style); err != nil {
		s.err = fmt.Errorf("sheet %q header style: %w", s.name, err)
	}
}

func (s *sheet) width(from, to string, w float64) {
	if s.err != nil {
		return
	}
	if err := s.f.SetColWidth(s.name, from, to, w); err != nil {
		s.err = fmt.Errorf("sheet %q column width: %w", s.name, err)
	}
}
