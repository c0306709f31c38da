// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomtom215/finsegment/internal/recommend"
)

const createTableSQL = `CREATE TABLE customers (
	age DOUBLE,
	income DOUBLE,
	credit_score DOUBLE,
	monthly_spending DOUBLE,
	savings_balance DOUBLE,
	loan_amount DOUBLE,
	digital_engagement DOUBLE,
	spending_score DOUBLE,
	saving_frequency DOUBLE,
	loan_behavior DOUBLE,
	employment_status VARCHAR,
	existing_products VARCHAR,
	target_account VARCHAR,
	target_savings VARCHAR,
	target_loan VARCHAR,
	target_digital_service VARCHAR
)`

const insertSQL = `INSERT INTO customers VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Write stores rows at path in the format implied by its extension. Labels
// are written as label text. The file is replaced if it exists.
func Write(ctx context.Context, path string, rows []recommend.TrainingRow) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", memoryDSN)
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }() //nolint:errcheck // in-memory database

	// a single connection keeps the table and the COPY on one session
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // released with the database

	if _, err := conn.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	if err := insertRows(ctx, conn, rows); err != nil {
		return err
	}

	copySQL := fmt.Sprintf("COPY customers TO %s (%s)", quoteLiteral(path), copyOptions(format))
	if _, err := conn.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return nil
}

func copyOptions(format Format) string {
	if format == FormatParquet {
		return "FORMAT PARQUET"
	}
	return "FORMAT CSV, HEADER"
}

func insertRows(ctx context.Context, conn *sql.Conn, rows []recommend.TrainingRow) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }() //nolint:errcheck // closed with the transaction

	for i := range rows {
		r := &rows[i]
		p := &r.Profile
		var products any
		if len(p.ExistingProducts) > 0 {
			products = strings.Join(p.ExistingProducts, ";")
		}
		if _, err := stmt.ExecContext(ctx,
			p.Age, p.Income, p.CreditScore, p.MonthlySpending, p.SavingsBalance, p.LoanAmount,
			p.DigitalEngagement, p.SpendingScore, p.SavingFrequency, p.LoanBehavior,
			string(p.EmploymentStatus), products,
			recommend.CategoryAccount.Label(r.Labels[recommend.CategoryAccount]),
			recommend.CategorySavings.Label(r.Labels[recommend.CategorySavings]),
			recommend.CategoryLoan.Label(r.Labels[recommend.CategoryLoan]),
			recommend.CategoryDigitalService.Label(r.Labels[recommend.CategoryDigitalService]),
		); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rows: %w", err)
	}
	return nil
}
