// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"testing"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/validation"
)

func f64(v float64) *float64 { return &v }

func fullRequest() ProfileRequest {
	return ProfileRequest{
		Age:               f64(45),
		Income:            f64(120000),
		CreditScore:       f64(780),
		MonthlySpending:   f64(3000),
		SavingsBalance:    f64(60000),
		LoanAmount:        f64(0),
		DigitalEngagement: f64(3),
		SpendingScore:     f64(40),
		SavingFrequency:   f64(9),
		LoanBehavior:      f64(0),
		EmploymentStatus:  "self employed",
		ExistingProducts:  []string{"cd", "mortgage"},
	}
}

func TestProfileRequest_ToProfile(t *testing.T) {
	t.Parallel()
	req := fullRequest()
	if verr := validation.ValidateStruct(&req); verr != nil {
		t.Fatalf("ValidateStruct() = %v", verr)
	}

	p := req.ToProfile()
	if p.Age != 45 || p.Income != 120000 || p.CreditScore != 780 || p.SavingFrequency != 9 {
		t.Errorf("profile = %+v", p)
	}
	if p.EmploymentStatus != features.EmploymentSelfEmployed {
		t.Errorf("employment = %q, want self_employed", p.EmploymentStatus)
	}

	// the profile owns its product list
	req.ExistingProducts[0] = "changed"
	if p.ExistingProducts[0] != "cd" {
		t.Error("ToProfile shares the request's product slice")
	}
}

func TestProfileRequest_ZeroIsPresent(t *testing.T) {
	t.Parallel()
	// loan_amount and loan_behavior are zero but present: required passes
	req := fullRequest()
	if verr := validation.ValidateStruct(&req); verr != nil {
		t.Errorf("ValidateStruct() = %v, want nil", verr)
	}
}

func TestProfileRequest_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ProfileRequest)
		field  string
	}{
		{"age above 120", func(r *ProfileRequest) { r.Age = f64(121) }, "age"},
		{"income above cap", func(r *ProfileRequest) { r.Income = f64(200001) }, "income"},
		{"credit below 300", func(r *ProfileRequest) { r.CreditScore = f64(299) }, "credit_score"},
		{"negative spending", func(r *ProfileRequest) { r.MonthlySpending = f64(-5) }, "monthly_spending"},
		{"spending score above 100", func(r *ProfileRequest) { r.SpendingScore = f64(101) }, "spending_score"},
		{"saving frequency above 10", func(r *ProfileRequest) { r.SavingFrequency = f64(10.5) }, "saving_frequency"},
		{"loan behavior above 5", func(r *ProfileRequest) { r.LoanBehavior = f64(6) }, "loan_behavior"},
		{"too many products", func(r *ProfileRequest) { r.ExistingProducts = make([]string, 21) }, "existing_products"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := fullRequest()
			tt.mutate(&req)
			verr := validation.ValidateStruct(&req)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := verr.Errors()[0].Field(); got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}
}
