// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package dataset

import (
	"context"
	"math"
	"math/rand"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend"
)

// Sample count bounds used when Generate is asked for a random size.
const (
	MinSamples = 500
	MaxSamples = 1000
)

var (
	loanBehaviorWeights = []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
	ageGroupWeights     = []float64{0.15, 0.25, 0.25, 0.20, 0.15}
	employmentWeights   = []float64{0.50, 0.15, 0.15, 0.10, 0.10}

	// ageGroupBounds are the inclusive age range of each age group.
	ageGroupBounds = [][2]int{{18, 25}, {26, 35}, {36, 45}, {46, 55}, {56, 80}}
)

// Generator produces labelled synthetic customers. The same seed always
// yields the same rows. A Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	//nolint:gosec // G404: math/rand is acceptable for synthetic data (not security)
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate returns n rows. When n <= 0 a size in [MinSamples, MaxSamples]
// is drawn from the generator's own source.
func (g *Generator) Generate(n int) []recommend.TrainingRow {
	if n <= 0 {
		n = MinSamples + g.rng.Intn(MaxSamples-MinSamples+1)
	}
	rows := make([]recommend.TrainingRow, n)
	for i := range rows {
		rows[i] = g.row()
	}
	return rows
}

// Source returns a RowSource that generates n rows on every call.
func (g *Generator) Source(n int) recommend.RowSource {
	return recommend.RowsFunc(func(ctx context.Context) ([]recommend.TrainingRow, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return g.Generate(n), nil
	})
}

// draw holds the latent attributes the labels are derived from.
type draw struct {
	income          float64
	spendingScore   float64
	savingFrequency float64
	loanBehavior    int
	ageGroup        int
	employment      int
}

func (g *Generator) row() recommend.TrainingRow {
	d := draw{
		income:          clip(math.Exp(10.5+0.8*g.rng.NormFloat64()), 15000, 200000),
		spendingScore:   clip(50+20*g.rng.NormFloat64(), 0, 100),
		savingFrequency: clip(g.beta(2, 5)*10, 0, 10),
		loanBehavior:    g.choice(loanBehaviorWeights),
		ageGroup:        g.choice(ageGroupWeights),
		employment:      g.choice(employmentWeights),
	}

	bounds := ageGroupBounds[d.ageGroup]
	lb := float64(d.loanBehavior)
	p := features.Profile{
		Age:               float64(bounds[0] + g.rng.Intn(bounds[1]-bounds[0]+1)),
		Income:            round2(d.income),
		CreditScore:       math.Round(clip(580+20*d.savingFrequency-15*lb+50*g.rng.NormFloat64(), 300, 850)),
		MonthlySpending:   round2(math.Min(d.income/12*(0.2+0.6*d.spendingScore/100), 10000)),
		SavingsBalance:    round2(math.Min(d.income*d.savingFrequency/10*g.uniform(0.2, 1), 100000)),
		LoanAmount:        round2(lb * d.income * g.uniform(0.05, 0.25)),
		DigitalEngagement: round2(clip(8-1.2*float64(d.ageGroup)+1.5*g.rng.NormFloat64(), 0, 10)),
		SpendingScore:     round2(d.spendingScore),
		SavingFrequency:   round2(d.savingFrequency),
		LoanBehavior:      lb,
		EmploymentStatus:  features.EmploymentStatuses[d.employment],
	}

	var row recommend.TrainingRow
	row.Profile = p
	row.Labels[recommend.CategoryAccount] = accountLabel(d)
	row.Labels[recommend.CategorySavings] = savingsLabel(d)
	row.Labels[recommend.CategoryLoan] = loanLabel(d)
	row.Labels[recommend.CategoryDigitalService] = digitalLabel(d)
	return row
}

// The label rules are ordered overrides: later rules win over earlier ones.

func accountLabel(d draw) int {
	label := 0
	if d.income < 35000 && d.ageGroup <= 1 {
		label = 2 // student
	}
	if d.income > 90000 && d.employment == 2 {
		label = 3 // business
	}
	if d.income > 75000 && label == 0 {
		label = 1 // premium
	}
	return label
}

func savingsLabel(d draw) int {
	label := 0
	sf, inc := d.savingFrequency, d.income
	if sf >= 3 && sf < 7 && inc >= 35000 && inc < 70000 {
		label = 1 // high-yield
	}
	if sf >= 7 && inc >= 70000 && inc < 100000 {
		label = 2 // money market
	}
	if sf >= 8 && inc >= 100000 {
		label = 3 // certificate of deposit
	}
	return label
}

func loanLabel(d draw) int {
	label := 0
	lb := d.loanBehavior
	if lb <= 1 {
		label = 3
	}
	if lb >= 2 && lb <= 3 && d.income < 60000 {
		label = 0
	}
	if lb >= 2 && lb <= 3 && d.income >= 60000 {
		label = 2
	}
	if lb >= 4 && d.income > 70000 {
		label = 1
	}
	return label
}

func digitalLabel(d draw) int {
	label := 0
	if d.ageGroup <= 1 && d.income >= 35000 && d.income < 60000 {
		label = 3 // budgeting tools
	}
	if d.income > 90000 {
		label = 2 // investment platform
	}
	if d.income >= 60000 && d.income <= 90000 && label == 0 {
		label = 1 // premium digital
	}
	return label
}

// choice draws an index with the given probabilities.
func (g *Generator) choice(weights []float64) int {
	u := g.rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return i
		}
	}
	return len(weights) - 1
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*g.rng.Float64()
}

// beta draws Beta(a, b) for integer shapes via the ratio of gamma
// variates, each a sum of unit exponentials.
func (g *Generator) beta(a, b int) float64 {
	x := g.gammaInt(a)
	y := g.gammaInt(b)
	return x / (x + y)
}

func (g *Generator) gammaInt(k int) float64 {
	sum := 0.0
	for range k {
		sum += g.rng.ExpFloat64()
	}
	return sum
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
