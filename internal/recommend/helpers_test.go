// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/features"
)

// syntheticRows builds n labelled rows whose labels follow simple rules on
// the raw fields, so the classifiers have signal to learn.
func syntheticRows(n int, seed int64) []TrainingRow {
	rng := rand.New(rand.NewSource(seed))
	statuses := features.EmploymentStatuses
	rows := make([]TrainingRow, n)
	for i := range rows {
		p := features.Profile{
			Age:               float64(18 + rng.Intn(60)),
			Income:            15000 + rng.Float64()*150000,
			CreditScore:       300 + rng.Float64()*550,
			MonthlySpending:   rng.Float64() * 8000,
			SavingsBalance:    rng.Float64() * 90000,
			LoanAmount:        rng.Float64() * 50000,
			DigitalEngagement: float64(rng.Intn(11)),
			SpendingScore:     rng.Float64() * 100,
			SavingFrequency:   float64(rng.Intn(11)),
			LoanBehavior:      float64(rng.Intn(6)),
			EmploymentStatus:  statuses[rng.Intn(len(statuses))],
		}
		var labels [NumCategories]int
		switch {
		case p.Age < 25:
			labels[CategoryAccount] = 2
		case p.Income > 100000:
			labels[CategoryAccount] = 1
		}
		if p.SavingsBalance > 45000 {
			labels[CategorySavings] = 1
		}
		if p.LoanBehavior < 2 {
			labels[CategoryLoan] = 3
		}
		if p.DigitalEngagement > 6 {
			labels[CategoryDigitalService] = 1
		}
		rows[i] = TrainingRow{Profile: p, Labels: labels}
	}
	return rows
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Clustering.Restarts = 3
	cfg.Clustering.MaxIterations = 100
	cfg.Tree.MinSamplesSplit = 10
	return cfg
}

func trainTestBundle(t *testing.T, rows []TrainingRow) (*Bundle, *TrainingReport) {
	t.Helper()
	tr, err := NewTrainer(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTrainer() error = %v", err)
	}
	b, report, err := tr.Train(context.Background(), StaticRows(rows))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return b, report
}

func sampleProfile() *features.Profile {
	return &features.Profile{
		Age:               34,
		Income:            82000,
		CreditScore:       720,
		MonthlySpending:   2200,
		SavingsBalance:    30000,
		LoanAmount:        12000,
		DigitalEngagement: 8,
		SpendingScore:     55,
		SavingFrequency:   6,
		LoanBehavior:      2,
		EmploymentStatus:  features.EmploymentFullTime,
	}
}
