// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"strconv"
	"strings"
)

// Category is one of the four product families a recommendation is made for.
type Category int

const (
	// CategoryAccount covers checking and business accounts.
	CategoryAccount Category = iota
	// CategorySavings covers savings products.
	CategorySavings
	// CategoryLoan covers lending products.
	CategoryLoan
	// CategoryDigitalService covers digital banking services.
	CategoryDigitalService
)

// NumCategories is the number of product categories in every bundle.
const NumCategories = 4

// Categories lists every category in bundle order.
var Categories = [NumCategories]Category{
	CategoryAccount,
	CategorySavings,
	CategoryLoan,
	CategoryDigitalService,
}

var categoryNames = [NumCategories]string{
	"account",
	"savings",
	"loan",
	"digital_service",
}

// Label sets in declared order. Index order is the majority tie-break
// priority, so it must never be reordered for an existing schema version.
var categoryLabels = [NumCategories][]string{
	{"Basic Checking Account", "Premium Checking Account", "Student Account", "Business Account"},
	{"Standard Savings Account", "High-Yield Savings Account", "Money Market Account", "Certificate of Deposit"},
	{"Personal Loan", "Home Mortgage", "Auto Loan", "No Loan Recommended"},
	{"Basic Mobile Banking", "Premium Digital Banking", "Investment Platform", "Budgeting Tools"},
}

// String returns the wire name of the category.
func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c]
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < NumCategories
}

// Labels returns a copy of the category's label set in declared order.
func (c Category) Labels() []string {
	if !c.Valid() {
		return nil
	}
	out := make([]string, len(categoryLabels[c]))
	copy(out, categoryLabels[c])
	return out
}

// NumLabels returns the size of the category's label set.
func (c Category) NumLabels() int {
	if !c.Valid() {
		return 0
	}
	return len(categoryLabels[c])
}

// Label returns the label text at index i, or "" when out of range.
func (c Category) Label(i int) string {
	if !c.Valid() || i < 0 || i >= len(categoryLabels[c]) {
		return ""
	}
	return categoryLabels[c][i]
}

// LabelIndex resolves a dataset label value. The value may be the label text
// (case-insensitive, surrounding space ignored) or its 0-based index.
func (c Category) LabelIndex(value string) (int, bool) {
	if !c.Valid() {
		return 0, false
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	for i, l := range categoryLabels[c] {
		if strings.EqualFold(l, v) {
			return i, true
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(categoryLabels[c]) {
		return n, true
	}
	return 0, false
}

// ParseCategory returns the category with the given wire name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Category(i), true
		}
	}
	return 0, false
}
