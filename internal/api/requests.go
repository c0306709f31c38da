// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

// Request structs carry go-playground/validator tags. Numeric profile fields
// are pointers so that a missing field fails the required tag instead of
// silently decoding as zero.

import (
	"github.com/tomtom215/finsegment/internal/features"
)

// ProfileRequest is the body of POST /api/v1/recommendations.
//
// Fields:
//   - Age: 18-120
//   - Income: annual income, 0-200000
//   - CreditScore: 300-850
//   - MonthlySpending, SavingsBalance, LoanAmount: non-negative amounts
//   - DigitalEngagement: 0-10
//   - SpendingScore: 0-100
//   - SavingFrequency: 0-10
//   - LoanBehavior: 0-5
//   - EmploymentStatus: optional, defaults to unemployed
//   - ExistingProducts: optional product identifiers
type ProfileRequest struct {
	Age               *float64 `json:"age" validate:"required,gte=18,lte=120"`
	Income            *float64 `json:"income" validate:"required,gte=0,lte=200000"`
	CreditScore       *float64 `json:"credit_score" validate:"required,gte=300,lte=850"`
	MonthlySpending   *float64 `json:"monthly_spending" validate:"required,gte=0"`
	SavingsBalance    *float64 `json:"savings_balance" validate:"required,gte=0"`
	LoanAmount        *float64 `json:"loan_amount" validate:"required,gte=0"`
	DigitalEngagement *float64 `json:"digital_engagement" validate:"required,gte=0,lte=10"`
	SpendingScore     *float64 `json:"spending_score" validate:"required,gte=0,lte=100"`
	SavingFrequency   *float64 `json:"saving_frequency" validate:"required,gte=0,lte=10"`
	LoanBehavior      *float64 `json:"loan_behavior" validate:"required,gte=0,lte=5"`
	EmploymentStatus  string   `json:"employment_status" validate:"employment"`
	ExistingProducts  []string `json:"existing_products" validate:"max=20,dive,min=1,max=64"`
}

// ToProfile converts a validated request into a features.Profile. It must
// only be called after validation succeeded.
func (r *ProfileRequest) ToProfile() *features.Profile {
	return &features.Profile{
		Age:               deref(r.Age),
		Income:            deref(r.Income),
		CreditScore:       deref(r.CreditScore),
		MonthlySpending:   deref(r.MonthlySpending),
		SavingsBalance:    deref(r.SavingsBalance),
		LoanAmount:        deref(r.LoanAmount),
		DigitalEngagement: deref(r.DigitalEngagement),
		SpendingScore:     deref(r.SpendingScore),
		SavingFrequency:   deref(r.SavingFrequency),
		LoanBehavior:      deref(r.LoanBehavior),
		EmploymentStatus:  features.ParseEmploymentStatus(r.EmploymentStatus),
		ExistingProducts:  append([]string(nil), r.ExistingProducts...),
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
