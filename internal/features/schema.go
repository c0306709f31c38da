// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package features

import "slices"

// SchemaVersion identifies the feature layout below. Bump it whenever a
// feature is added, removed or reordered.
const SchemaVersion = 1

// Feature positions inside a Vector.
const (
	Age = iota
	Income
	CreditScore
	MonthlySpending
	SavingsBalance
	LoanAmount
	DigitalEngagement
	SpendingScore
	SavingFrequency
	LoanBehavior
	EmploymentCode

	FinancialHealthScore
	IncomeToSpendingRatio
	SavingsCapacity
	DebtToIncomeRatio
	DigitalAdoptionScore
	IncomeTierFeature

	// Count is the number of features in a Vector.
	Count
)

var names = [Count]string{
	Age:                   "age",
	Income:                "income",
	CreditScore:           "credit_score",
	MonthlySpending:       "monthly_spending",
	SavingsBalance:        "savings_balance",
	LoanAmount:            "loan_amount",
	DigitalEngagement:     "digital_engagement",
	SpendingScore:         "spending_score",
	SavingFrequency:       "saving_frequency",
	LoanBehavior:          "loan_behavior",
	EmploymentCode:        "employment_code",
	FinancialHealthScore:  "financial_health_score",
	IncomeToSpendingRatio: "income_to_spending_ratio",
	SavingsCapacity:       "savings_capacity",
	DebtToIncomeRatio:     "debt_to_income_ratio",
	DigitalAdoptionScore:  "digital_adoption_score",
	IncomeTierFeature:     "income_tier",
}

// Names returns the ordered feature names of the current schema.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Name returns the name of the feature at index i, or "" when out of range.
func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return names[i]
}

// Schema is the ordered feature list a fitted artifact was trained against.
type Schema struct {
	Version int      `json:"version"`
	Names   []string `json:"names"`
}

// CurrentSchema returns the schema produced by Engineer.Derive.
func CurrentSchema() Schema {
	return Schema{Version: SchemaVersion, Names: Names()}
}

// Len returns the number of features.
func (s Schema) Len() int { return len(s.Names) }

// Equal reports whether both schemas have the same version and feature order.
func (s Schema) Equal(o Schema) bool {
	return s.Version == o.Version && slices.Equal(s.Names, o.Names)
}

// With returns a copy of s with extra trailing feature names.
func (s Schema) With(extra ...string) Schema {
	out := Schema{Version: s.Version, Names: make([]string, 0, len(s.Names)+len(extra))}
	out.Names = append(out.Names, s.Names...)
	out.Names = append(out.Names, extra...)
	return out
}
