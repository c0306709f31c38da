// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package features

import (
	"fmt"
	"math"
)

// Normalization bounds for the financial health score. Values outside are clamped.
const (
	IncomeMin          = 0.0
	IncomeMax          = 200000.0
	CreditScoreMin     = 300.0
	CreditScoreMax     = 850.0
	SavingsBalanceMin  = 0.0
	SavingsBalanceMax  = 100000.0
	MonthlySpendingMin = 0.0
	MonthlySpendingMax = 10000.0

	// Epsilon is the smallest denominator used by the ratio features.
	Epsilon = 1.0

	// Income tier thresholds.
	LowIncomeCeiling = 30000.0
	HighIncomeFloor  = 70000.0
)

const weightSumTolerance = 1e-9

// IncomeTier buckets annual income.
type IncomeTier int

// Income tiers.
const (
	IncomeLow IncomeTier = iota
	IncomeMedium
	IncomeHigh
)

// String returns the tier name.
func (t IncomeTier) String() string {
	switch t {
	case IncomeLow:
		return "low"
	case IncomeMedium:
		return "medium"
	case IncomeHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TierForIncome returns low below 30000, high above 70000, medium otherwise.
func TierForIncome(income float64) IncomeTier {
	switch {
	case income < LowIncomeCeiling:
		return IncomeLow
	case income > HighIncomeFloor:
		return IncomeHigh
	default:
		return IncomeMedium
	}
}

// Weights are the financial health score component weights.
type Weights struct {
	Income   float64 `json:"income" koanf:"income"`
	Credit   float64 `json:"credit" koanf:"credit"`
	Savings  float64 `json:"savings" koanf:"savings"`
	Spending float64 `json:"spending" koanf:"spending"`
}

// DefaultWeights weights income highest, the rest equally.
func DefaultWeights() Weights {
	return Weights{Income: 0.4, Credit: 0.2, Savings: 0.2, Spending: 0.2}
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"income", w.Income}, {"credit", w.Credit}, {"savings", w.Savings}, {"spending", w.Spending},
	} {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("features.weights.%s must be a non-negative number, got %f", f.name, f.value)
		}
	}
	sum := w.Income + w.Credit + w.Savings + w.Spending
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("features.weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// Vector is one derived feature vector in schema order. It is a value type:
// copies never alias.
type Vector [Count]float64

// Slice returns the vector as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}

// Engineer derives feature vectors. Weights are validated once at
// construction so Derive never fails.
type Engineer struct {
	weights Weights
}

// NewEngineer validates w and returns an Engineer using it.
func NewEngineer(w Weights) (*Engineer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Engineer{weights: w}, nil
}

// Weights returns the weights in use.
func (e *Engineer) Weights() Weights { return e.weights }

// Derive computes the feature vector for p.
func (e *Engineer) Derive(p *Profile) Vector {
	var v Vector
	v[Age] = finite(p.Age)
	v[Income] = finite(p.Income)
	v[CreditScore] = finite(p.CreditScore)
	v[MonthlySpending] = finite(p.MonthlySpending)
	v[SavingsBalance] = finite(p.SavingsBalance)
	v[LoanAmount] = finite(p.LoanAmount)
	v[DigitalEngagement] = finite(p.DigitalEngagement)
	v[SpendingScore] = finite(p.SpendingScore)
	v[SavingFrequency] = finite(p.SavingFrequency)
	v[LoanBehavior] = finite(p.LoanBehavior)
	v[EmploymentCode] = p.EmploymentStatus.Code()

	v[FinancialHealthScore] = e.HealthScore(p)
	v[IncomeToSpendingRatio] = v[Income] / math.Max(v[MonthlySpending], Epsilon)
	v[SavingsCapacity] = v[SavingsBalance] - v[LoanAmount]
	v[DebtToIncomeRatio] = v[LoanAmount] / math.Max(v[Income], Epsilon)
	v[DigitalAdoptionScore] = v[DigitalEngagement] / 10
	v[IncomeTierFeature] = float64(TierForIncome(v[Income]))
	return v
}

// HealthScore returns the weighted financial health score on a 0-100 scale.
// Lower monthly spending scores higher.
func (e *Engineer) HealthScore(p *Profile) float64 {
	w := e.weights
	score := w.Income*Normalize(p.Income, IncomeMin, IncomeMax) +
		w.Credit*Normalize(p.CreditScore, CreditScoreMin, CreditScoreMax) +
		w.Savings*Normalize(p.SavingsBalance, SavingsBalanceMin, SavingsBalanceMax) +
		w.Spending*(1-Normalize(p.MonthlySpending, MonthlySpendingMin, MonthlySpendingMax))
	return score * 100
}

// Normalize maps x into [0,1] using fixed bounds. Out-of-range values clamp
// to exactly 0 or 1; NaN maps to 0.
func Normalize(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x <= lo || hi <= lo {
		return 0
	}
	if x >= hi {
		return 1
	}
	return (x - lo) / (hi - lo)
}

// finite replaces NaN and infinities with 0 so downstream arithmetic stays finite.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
