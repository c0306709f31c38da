// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package dataset

import (
	"math"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend"
)

// Column names used in dataset files.
const (
	ColAge               = "age"
	ColIncome            = "income"
	ColCreditScore       = "credit_score"
	ColMonthlySpending   = "monthly_spending"
	ColSavingsBalance    = "savings_balance"
	ColLoanAmount        = "loan_amount"
	ColDigitalEngagement = "digital_engagement"
	ColSpendingScore     = "spending_score"
	ColSavingFrequency   = "saving_frequency"
	ColLoanBehavior      = "loan_behavior"
	ColEmploymentStatus  = "employment_status"
	ColExistingProducts  = "existing_products"

	// colEmploymentType is the numeric employment column older datasets use.
	colEmploymentType = "employment_type"
)

// numericColumn describes one required numeric profile field.
type numericColumn struct {
	name   string
	min    float64
	max    float64
	assign func(p *features.Profile, v float64)
}

var numericColumns = []numericColumn{
	{ColAge, 0, 130, func(p *features.Profile, v float64) { p.Age = v }},
	{ColIncome, 0, math.Inf(1), func(p *features.Profile, v float64) { p.Income = v }},
	{ColCreditScore, 0, math.Inf(1), func(p *features.Profile, v float64) { p.CreditScore = v }},
	{ColMonthlySpending, 0, math.Inf(1), func(p *features.Profile, v float64) { p.MonthlySpending = v }},
	{ColSavingsBalance, math.Inf(-1), math.Inf(1), func(p *features.Profile, v float64) { p.SavingsBalance = v }},
	{ColLoanAmount, 0, math.Inf(1), func(p *features.Profile, v float64) { p.LoanAmount = v }},
	{ColDigitalEngagement, 0, 10, func(p *features.Profile, v float64) { p.DigitalEngagement = v }},
	{ColSpendingScore, 0, 100, func(p *features.Profile, v float64) { p.SpendingScore = v }},
	{ColSavingFrequency, 0, 10, func(p *features.Profile, v float64) { p.SavingFrequency = v }},
	{ColLoanBehavior, 0, 5, func(p *features.Profile, v float64) { p.LoanBehavior = v }},
}

// LabelColumn returns the dataset column holding the target label of c.
func LabelColumn(c recommend.Category) string {
	return "target_" + c.String()
}

// RequiredColumns lists every column a training dataset must contain.
func RequiredColumns() []string {
	cols := make([]string, 0, len(numericColumns)+1+recommend.NumCategories)
	for _, c := range numericColumns {
		cols = append(cols, c.name)
	}
	cols = append(cols, ColEmploymentStatus)
	for _, c := range recommend.Categories {
		cols = append(cols, LabelColumn(c))
	}
	return cols
}
