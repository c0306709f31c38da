// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
)

func TestPredict(t *testing.T) {
	b, _ := trainTestBundle(t, syntheticRows(300, 21))
	b = b.WithVersion(4)

	res, err := Predict(b, sampleProfile())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if res.ClusterID < 0 || res.ClusterID >= b.Segments.K() {
		t.Errorf("ClusterID = %d outside [0,%d)", res.ClusterID, b.Segments.K())
	}
	if res.SegmentDistance < 0 {
		t.Errorf("SegmentDistance = %v", res.SegmentDistance)
	}
	if res.BundleVersion != 4 {
		t.Errorf("BundleVersion = %d, want 4", res.BundleVersion)
	}
	if res.FinancialHealthScore < 0 || res.FinancialHealthScore > 100 {
		t.Errorf("FinancialHealthScore = %v outside [0,100]", res.FinancialHealthScore)
	}

	for _, c := range Categories {
		rec := res.For(c)
		if rec.Category != c {
			t.Errorf("recommendation category = %s, want %s", rec.Category, c)
		}
		if rec.Label != c.Label(rec.LabelIndex) {
			t.Errorf("%s label %q does not match index %d", c, rec.Label, rec.LabelIndex)
		}
		if rec.Confidence <= 0 || rec.Confidence > 1 {
			t.Errorf("%s confidence = %v outside (0,1]", c, rec.Confidence)
		}
		sum := 0.0
		for _, p := range rec.Probabilities {
			sum += p
			if p > rec.Confidence {
				t.Errorf("%s probability %v above the predicted class confidence", c, p)
			}
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%s probabilities sum = %v", c, sum)
		}
	}
}

// The reference customer from the product brief, scored against a bundle
// trained on a fixed seed.
func TestPredict_ReferenceCustomer(t *testing.T) {
	b, _ := trainTestBundle(t, syntheticRows(500, 42))
	p := &features.Profile{
		Age:               35,
		Income:            75000,
		CreditScore:       720,
		SavingsBalance:    15000,
		MonthlySpending:   2500,
		LoanAmount:        0,
		DigitalEngagement: 8,
		SpendingScore:     65,
		SavingFrequency:   7,
		LoanBehavior:      2,
		EmploymentStatus:  features.EmploymentFullTime,
	}

	res, err := Predict(b, p)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if b.Segments.K() != 5 {
		t.Fatalf("K = %d, want the default 5", b.Segments.K())
	}
	if res.ClusterID < 0 || res.ClusterID > 4 {
		t.Errorf("ClusterID = %d outside [0,4]", res.ClusterID)
	}
	if res.FinancialHealthScore < 0 || res.FinancialHealthScore > 100 {
		t.Errorf("FinancialHealthScore = %v outside [0,100]", res.FinancialHealthScore)
	}
	for _, c := range Categories {
		rec := res.For(c)
		if rec.Confidence < 0 || rec.Confidence > 1 {
			t.Errorf("%s confidence = %v outside [0,1]", c, rec.Confidence)
		}
		if rec.LabelIndex < 0 || rec.LabelIndex >= c.NumLabels() || rec.Label != c.Label(rec.LabelIndex) {
			t.Errorf("%s label %q (index %d) outside the category label set", c, rec.Label, rec.LabelIndex)
		}
	}

	again, err := Predict(b, p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res, again) {
		t.Error("repeated Predict() results differ")
	}
}

func TestPredict_FollowsLearnedRules(t *testing.T) {
	b, _ := trainTestBundle(t, syntheticRows(400, 17))

	student := sampleProfile()
	student.Age = 19
	student.Income = 20000
	res, err := Predict(b, student)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.For(CategoryAccount).Label; got != "Student Account" {
		t.Errorf("account for a 19 year old = %q, want Student Account", got)
	}

	saver := sampleProfile()
	saver.SavingsBalance = 85000
	res, err = Predict(b, saver)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.For(CategorySavings).Label; got != "High-Yield Savings Account" {
		t.Errorf("savings for a large balance = %q", got)
	}
}

func TestPredict_Errors(t *testing.T) {
	if _, err := Predict(nil, sampleProfile()); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Predict(nil) error = %v, want ErrModelNotReady", err)
	}
	if _, err := Predict(&Bundle{}, sampleProfile()); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Predict(unsealed) error = %v, want ErrModelNotReady", err)
	}

	b, _ := trainTestBundle(t, syntheticRows(120, 3))
	// corrupt the scaler after sealing to reach the runtime dimension check
	b.Scaler.Means = b.Scaler.Means[:features.Count-1]
	if _, err := Predict(b, sampleProfile()); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Predict(corrupt scaler) error = %v, want ErrSchemaMismatch", err)
	}
}

func TestPredict_TotalOnExtremeInput(t *testing.T) {
	b, _ := trainTestBundle(t, syntheticRows(120, 9))
	p := &features.Profile{
		Age:             -5,
		Income:          math.NaN(),
		CreditScore:     5000,
		MonthlySpending: math.Inf(1),
		SavingsBalance:  -100,
	}
	res, err := Predict(b, p)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if math.IsNaN(res.FinancialHealthScore) || math.IsNaN(res.SegmentDistance) {
		t.Errorf("result contains NaN: %+v", res)
	}
}

func TestPredict_RoundTripThroughStore(t *testing.T) {
	b, _ := trainTestBundle(t, syntheticRows(300, 5))
	b = b.WithVersion(1)

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, BundleName, 1, b, storage.ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded Bundle
	if _, err := store.Load(ctx, BundleName, 1, &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := loaded.Seal(); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	rows := syntheticRows(50, 99)
	for i := range rows {
		want, err := Predict(b, &rows[i].Profile)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Predict(&loaded, &rows[i].Profile)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("row %d: loaded bundle predicts %+v, in-memory %+v", i, got, want)
		}
	}
}
