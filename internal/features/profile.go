// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package features turns a raw customer profile into the ordered numeric
// feature vector consumed by the segmentation and classification models.
//
// Derivation is a pure function of the profile: no I/O, no dependence on
// model output, and every input is clamped into range rather than rejected,
// so the inference path stays total for any structurally valid profile.
package features

import "strings"

// EmploymentStatus is the categorical employment attribute of a profile.
type EmploymentStatus string

// Employment statuses, in the order of their ordinal encoding.
const (
	EmploymentFullTime     EmploymentStatus = "full_time"
	EmploymentPartTime     EmploymentStatus = "part_time"
	EmploymentSelfEmployed EmploymentStatus = "self_employed"
	EmploymentStudent      EmploymentStatus = "student"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
)

// EmploymentStatuses lists every known status in encoding order.
var EmploymentStatuses = []EmploymentStatus{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentSelfEmployed,
	EmploymentStudent,
	EmploymentRetired,
	EmploymentUnemployed,
}

// ParseEmploymentStatus normalizes free-form input ("Self-Employed",
// "full time") into a known status. Unknown values map to unemployed.
func ParseEmploymentStatus(s string) EmploymentStatus {
	if e, ok := LookupEmploymentStatus(s); ok {
		return e
	}
	return EmploymentUnemployed
}

// LookupEmploymentStatus is ParseEmploymentStatus without the fallback: it
// reports whether s names a known status.
func LookupEmploymentStatus(s string) (EmploymentStatus, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, e := range EmploymentStatuses {
		if string(e) == norm {
			return e, true
		}
	}
	return "", false
}

// Code returns the ordinal encoding used as the employment_code feature.
func (e EmploymentStatus) Code() float64 {
	for i, known := range EmploymentStatuses {
		if e == known {
			return float64(i)
		}
	}
	return float64(len(EmploymentStatuses) - 1)
}

// Profile is the raw description of one customer. It is created per request
// or per dataset row and never mutated by this package.
type Profile struct {
	Age               float64          `json:"age"`
	Income            float64          `json:"income"`
	CreditScore       float64          `json:"credit_score"`
	MonthlySpending   float64          `json:"monthly_spending"`
	SavingsBalance    float64          `json:"savings_balance"`
	LoanAmount        float64          `json:"loan_amount"`
	DigitalEngagement float64          `json:"digital_engagement"` // 0-10
	SpendingScore     float64          `json:"spending_score"`     // 0-100
	SavingFrequency   float64          `json:"saving_frequency"`   // 0-10
	LoanBehavior      float64          `json:"loan_behavior"`      // 0-5
	EmploymentStatus  EmploymentStatus `json:"employment_status"`
	ExistingProducts  []string         `json:"existing_products,omitempty"`
}
