// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend"
)

// memoryDSN opens a private in-memory DuckDB without touching the network
// for extension installs. CSV and Parquet readers are built in.
const memoryDSN = ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false"

// Format is a dataset file format.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported dataset format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}

// Loader reads training rows from a CSV or Parquet file through DuckDB.
// It implements recommend.RowSource.
type Loader struct {
	path   string
	format Format
	logger zerolog.Logger
}

var _ recommend.RowSource = (*Loader)(nil)

// NewLoader creates a loader for path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(path string, logger zerolog.Logger) (*Loader, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return &Loader{
		path:   path,
		format: format,
		logger: logger.With().Str("component", "dataset").Logger(),
	}, nil
}

// Path returns the dataset path.
func (l *Loader) Path() string { return l.path }

// sourceSQL returns the table function that scans the file.
func (l *Loader) sourceSQL() string {
	quoted := quoteLiteral(l.path)
	if l.format == FormatParquet {
		return fmt.Sprintf("read_parquet(%s)", quoted)
	}
	return fmt.Sprintf("read_csv_auto(%s, header = true)", quoted)
}

// Rows loads and parses every row of the dataset. Rows with missing or
// invalid fields are returned with Missing populated so the trainer can
// account for them in its drop rate.
func (l *Loader) Rows(ctx context.Context) ([]recommend.TrainingRow, error) {
	db, err := sql.Open("duckdb", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }() //nolint:errcheck // in-memory database

	query := "SELECT * FROM " + l.sourceSQL() //nolint:gosec // path is quoted as a SQL literal
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", l.path, err)
	}
	defer func() { _ = rows.Close() }() //nolint:errcheck // read-only cursor

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read dataset columns: %w", err)
	}
	idx, err := indexColumns(cols)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var out []recommend.TrainingRow
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan dataset row %d: %w", len(out)+1, err)
		}
		out = append(out, parseRow(values, idx))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset: %w", err)
	}

	invalid := 0
	for i := range out {
		if !out[i].Valid() {
			invalid++
		}
	}
	l.logger.Info().
		Str("path", l.path).
		Str("format", string(l.format)).
		Int("rows", len(out)).
		Int("invalid", invalid).
		Msg("loaded dataset")

	return out, nil
}

// columnIndex maps dataset columns to scan positions. -1 means absent.
type columnIndex struct {
	numeric    []int
	employment int
	products   int
	labels     [recommend.NumCategories]int
}

func indexColumns(cols []string) (*columnIndex, error) {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[strings.ToLower(strings.TrimSpace(c))] = i
	}
	lookup := func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		return -1
	}

	idx := &columnIndex{
		numeric:    make([]int, len(numericColumns)),
		employment: lookup(ColEmploymentStatus),
		products:   lookup(ColExistingProducts),
	}
	if idx.employment < 0 {
		idx.employment = lookup(colEmploymentType)
	}

	var missing []string
	for i, c := range numericColumns {
		idx.numeric[i] = lookup(c.name)
		if idx.numeric[i] < 0 {
			missing = append(missing, c.name)
		}
	}
	if idx.employment < 0 {
		missing = append(missing, ColEmploymentStatus)
	}
	for i, c := range recommend.Categories {
		idx.labels[i] = lookup(LabelColumn(c))
		if idx.labels[i] < 0 {
			missing = append(missing, LabelColumn(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", recommend.ErrTrainingData, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(values []any, idx *columnIndex) recommend.TrainingRow {
	var row recommend.TrainingRow
	p := &row.Profile

	for i, c := range numericColumns {
		v, ok := toFloat(values[idx.numeric[i]])
		if !ok || v < c.min || v > c.max {
			row.Missing = append(row.Missing, c.name)
			continue
		}
		c.assign(p, v)
	}

	if status, ok := parseEmployment(values[idx.employment]); ok {
		p.EmploymentStatus = status
	} else {
		row.Missing = append(row.Missing, ColEmploymentStatus)
	}

	if idx.products >= 0 {
		p.ExistingProducts = splitProducts(values[idx.products])
	}

	for i, c := range recommend.Categories {
		s, ok := toText(values[idx.labels[i]])
		if !ok {
			row.Missing = append(row.Missing, LabelColumn(c))
			continue
		}
		label, ok := c.LabelIndex(s)
		if !ok {
			row.Missing = append(row.Missing, LabelColumn(c))
			continue
		}
		row.Labels[i] = label
	}
	return row
}

// parseEmployment accepts a status name or its ordinal code.
func parseEmployment(v any) (features.EmploymentStatus, bool) {
	if v == nil {
		return "", false
	}
	if f, ok := toFloat(v); ok {
		i := int(f)
		if f != float64(i) || i < 0 || i >= len(features.EmploymentStatuses) {
			return features.EmploymentUnemployed, true
		}
		return features.EmploymentStatuses[i], true
	}
	s, ok := toText(v)
	if !ok {
		return "", false
	}
	return features.ParseEmploymentStatus(s), true
}

func splitProducts(v any) []string {
	s, ok := toText(v)
	if !ok {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' || r == '|' })
	out := parts[:0]
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// toFloat converts a scanned DuckDB value into a finite float64.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case *big.Int:
		f, _ = new(big.Float).SetInt(x).Float64()
	case interface{ Float64() float64 }: // DECIMAL
		f = x.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toText renders a scanned value as label text. Integral numbers render
// without a decimal point so they resolve as label indices.
func toText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, strings.TrimSpace(x) != ""
	case []byte:
		return string(x), len(strings.TrimSpace(string(x))) > 0
	}
	f, ok := toFloat(v)
	if !ok {
		return fmt.Sprint(v), true
	}
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// quoteLiteral quotes s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
