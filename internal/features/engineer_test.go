// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package features

import (
	"math"
	"strings"
	"testing"
)

func sampleProfile() *Profile {
	return &Profile{
		Age:               34,
		Income:            75000,
		CreditScore:       720,
		MonthlySpending:   2500,
		SavingsBalance:    15000,
		LoanAmount:        0,
		DigitalEngagement: 8,
		SpendingScore:     65,
		SavingFrequency:   7,
		LoanBehavior:      2,
		EmploymentStatus:  EmploymentFullTime,
	}
}

func mustEngineer(t *testing.T) *Engineer {
	t.Helper()
	e, err := NewEngineer(DefaultWeights())
	if err != nil {
		t.Fatalf("NewEngineer() error = %v", err)
	}
	return e
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below", -50, 0},
		{"at_min", 0, 0},
		{"middle", 50, 0.5},
		{"at_max", 100, 1},
		{"above", 1e9, 1},
		{"nan", math.NaN(), 0},
		{"neg_inf", math.Inf(-1), 0},
		{"pos_inf", math.Inf(1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.x, 0, 100); got != tt.want {
				t.Errorf("Normalize(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestTierForIncome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		income float64
		want   IncomeTier
	}{
		{0, IncomeLow},
		{29999.99, IncomeLow},
		{30000, IncomeMedium},
		{70000, IncomeMedium},
		{70000.01, IncomeHigh},
	}
	for _, tt := range tests {
		if got := TierForIncome(tt.income); got != tt.want {
			t.Errorf("TierForIncome(%v) = %v, want %v", tt.income, got, tt.want)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"all_income", Weights{Income: 1}, false},
		{"short", Weights{Income: 0.5, Credit: 0.2}, true},
		{"negative", Weights{Income: 1.2, Credit: -0.2}, true},
		{"nan", Weights{Income: math.NaN(), Credit: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if _, nerr := NewEngineer(tt.w); (nerr != nil) != tt.wantErr {
				t.Errorf("NewEngineer() error = %v, wantErr %v", nerr, tt.wantErr)
			}
		})
	}
}

func TestWeightsValidate_NamesFirstInvalidField(t *testing.T) {
	t.Parallel()

	w := Weights{Income: -1, Credit: -1, Savings: -1, Spending: -1}
	for range 20 {
		err := w.Validate()
		if err == nil || !strings.Contains(err.Error(), "features.weights.income ") {
			t.Fatalf("Validate() error = %v, want the income field", err)
		}
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	e := mustEngineer(t)
	v := e.Derive(sampleProfile())

	// 0.4*0.375 + 0.2*(420/550) + 0.2*0.15 + 0.2*(1-0.25)
	wantHealth := (0.4*0.375 + 0.2*(420.0/550.0) + 0.2*0.15 + 0.2*0.75) * 100
	if math.Abs(v[FinancialHealthScore]-wantHealth) > 1e-9 {
		t.Errorf("financial_health_score = %v, want %v", v[FinancialHealthScore], wantHealth)
	}
	if v[IncomeToSpendingRatio] != 30 {
		t.Errorf("income_to_spending_ratio = %v, want 30", v[IncomeToSpendingRatio])
	}
	if v[SavingsCapacity] != 15000 {
		t.Errorf("savings_capacity = %v, want 15000", v[SavingsCapacity])
	}
	if v[DebtToIncomeRatio] != 0 {
		t.Errorf("debt_to_income_ratio = %v, want 0", v[DebtToIncomeRatio])
	}
	if v[DigitalAdoptionScore] != 0.8 {
		t.Errorf("digital_adoption_score = %v, want 0.8", v[DigitalAdoptionScore])
	}
	if v[IncomeTierFeature] != float64(IncomeHigh) {
		t.Errorf("income_tier = %v, want %v", v[IncomeTierFeature], float64(IncomeHigh))
	}
	if v[EmploymentCode] != 0 {
		t.Errorf("employment_code = %v, want 0", v[EmploymentCode])
	}
}

func TestDerive_EdgeCases(t *testing.T) {
	t.Parallel()

	e := mustEngineer(t)

	t.Run("zero_spending_ratio_is_finite", func(t *testing.T) {
		p := sampleProfile()
		p.MonthlySpending = 0
		v := e.Derive(p)
		if math.IsInf(v[IncomeToSpendingRatio], 0) || math.IsNaN(v[IncomeToSpendingRatio]) {
			t.Fatalf("income_to_spending_ratio not finite: %v", v[IncomeToSpendingRatio])
		}
		if v[IncomeToSpendingRatio] != p.Income {
			t.Errorf("income_to_spending_ratio = %v, want %v", v[IncomeToSpendingRatio], p.Income)
		}
	})

	t.Run("zero_income_debt_ratio_is_finite", func(t *testing.T) {
		p := sampleProfile()
		p.Income = 0
		p.LoanAmount = 5000
		v := e.Derive(p)
		if v[DebtToIncomeRatio] != 5000 {
			t.Errorf("debt_to_income_ratio = %v, want 5000", v[DebtToIncomeRatio])
		}
	})

	t.Run("negative_savings_capacity", func(t *testing.T) {
		p := sampleProfile()
		p.LoanAmount = 40000
		v := e.Derive(p)
		if v[SavingsCapacity] != -25000 {
			t.Errorf("savings_capacity = %v, want -25000", v[SavingsCapacity])
		}
	})

	t.Run("health_score_clamped", func(t *testing.T) {
		p := sampleProfile()
		p.Income = 1e9
		p.CreditScore = 10000
		p.SavingsBalance = 1e9
		p.MonthlySpending = -100
		if got := e.HealthScore(p); math.Abs(got-100) > 1e-9 {
			t.Errorf("HealthScore() = %v, want 100", got)
		}
		p.Income = -1
		p.CreditScore = 0
		p.SavingsBalance = -1
		p.MonthlySpending = 1e9
		if got := e.HealthScore(p); got != 0 {
			t.Errorf("HealthScore() = %v, want 0", got)
		}
	})
}

func TestDerive_Deterministic(t *testing.T) {
	t.Parallel()

	e := mustEngineer(t)
	p := sampleProfile()
	first := e.Derive(p)
	for i := 0; i < 10; i++ {
		if got := e.Derive(p); got != first {
			t.Fatalf("Derive() not deterministic on iteration %d", i)
		}
	}
	if len(first.Slice()) != CurrentSchema().Len() {
		t.Errorf("vector length %d does not match schema length %d", len(first.Slice()), CurrentSchema().Len())
	}
}

func TestParseEmploymentStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]EmploymentStatus{
		"full_time":     EmploymentFullTime,
		"Self-Employed": EmploymentSelfEmployed,
		" part time ":   EmploymentPartTime,
		"STUDENT":       EmploymentStudent,
		"astronaut":     EmploymentUnemployed,
		"":              EmploymentUnemployed,
	}
	for in, want := range tests {
		if got := ParseEmploymentStatus(in); got != want {
			t.Errorf("ParseEmploymentStatus(%q) = %q, want %q", in, got, want)
		}
	}
	if EmploymentStatus("bogus").Code() != EmploymentUnemployed.Code() {
		t.Error("unknown status should encode as unemployed")
	}
}

func TestSchema(t *testing.T) {
	t.Parallel()

	s := CurrentSchema()
	if s.Len() != Count {
		t.Fatalf("schema len = %d, want %d", s.Len(), Count)
	}
	if s.Names[0] != "age" || s.Names[Count-1] != "income_tier" {
		t.Errorf("unexpected schema order: %v", s.Names)
	}
	for i, n := range s.Names {
		if n == "" {
			t.Errorf("feature %d has no name", i)
		}
	}

	ext := s.With("cluster_id")
	if ext.Len() != Count+1 || ext.Names[Count] != "cluster_id" {
		t.Errorf("With() = %v", ext.Names)
	}
	if s.Equal(ext) {
		t.Error("extended schema should not equal base schema")
	}
	if !s.Equal(CurrentSchema()) {
		t.Error("CurrentSchema() should be stable")
	}
	if Name(-1) != "" || Name(Count) != "" {
		t.Error("Name() out of range should be empty")
	}
}
