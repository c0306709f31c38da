// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/finsegment/internal/features"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
	"github.com/tomtom215/finsegment/internal/runs"
)

// fakeEngine is a ModelEngine with canned answers.
type fakeEngine struct {
	mu          sync.Mutex
	current     *recommend.Bundle
	result      *recommend.Result
	recErr      error
	reloadErr   error
	reloaded    []int
	versions    []storage.ModelMetadata
	versionsErr error
	status      recommend.TrainingStatus
	lastProfile *features.Profile
}

func (f *fakeEngine) Recommend(ctx context.Context, p *features.Profile) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastProfile = p
	if f.recErr != nil {
		return nil, f.recErr
	}
	if f.result == nil {
		return nil, recommend.ErrModelNotReady
	}
	return f.result, nil
}

func (f *fakeEngine) Reload(ctx context.Context, version int) (*recommend.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloaded = append(f.reloaded, version)
	if f.reloadErr != nil {
		return nil, f.reloadErr
	}
	if version == 0 {
		version = 9
	}
	f.current = &recommend.Bundle{Version: version}
	return f.current, nil
}

func (f *fakeEngine) Versions(ctx context.Context) ([]storage.ModelMetadata, error) {
	return f.versions, f.versionsErr
}

func (f *fakeEngine) Status() recommend.TrainingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeEngine) Current() *recommend.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeEngine) Ready() bool {
	return f.Current() != nil
}

// fakeRuns is an in-memory RunLister.
type fakeRuns struct {
	reports   []*recommend.TrainingReport
	lastLimit int
}

func (f *fakeRuns) List(ctx context.Context, limit int) ([]*recommend.TrainingReport, error) {
	f.lastLimit = limit
	if limit < len(f.reports) {
		return f.reports[:limit], nil
	}
	return f.reports, nil
}

func (f *fakeRuns) Get(ctx context.Context, version int) (*recommend.TrainingReport, error) {
	for _, r := range f.reports {
		if r.Version == version {
			return r, nil
		}
	}
	return nil, runs.ErrRunNotFound
}

// fakeTrainer records trigger labels.
type fakeTrainer struct {
	mu       sync.Mutex
	triggers []string
	err      error
}

func (f *fakeTrainer) Train(ctx context.Context, trigger string) (*recommend.TrainingReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.TrainingReport{Version: len(f.triggers)}, nil
}

func (f *fakeTrainer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.triggers...)
}

// envelope mirrors APIResponse with a raw data payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, target); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

// testRouter returns the full router over h with rate limiting disabled.
func testRouter(h *Handler) http.Handler {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://example.com"}
	cfg.RateLimitDisabled = true
	return NewRouter(h, NewChiMiddleware(cfg)).SetupChi()
}

func testHandlerConfig() HandlerConfig {
	cfg := DefaultHandlerConfig()
	cfg.ServiceName = "finsegment-test"
	cfg.Version = "1.0.0-test"
	cfg.TrainInterval = 0
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// validProfileBody is a request body that passes validation.
func validProfileBody() map[string]interface{} {
	return map[string]interface{}{
		"age":                34,
		"income":             82000,
		"credit_score":       720,
		"monthly_spending":   2200,
		"savings_balance":    30000,
		"loan_amount":        12000,
		"digital_engagement": 8,
		"spending_score":     55,
		"saving_frequency":   6,
		"loan_behavior":      2,
		"employment_status":  "Full-Time",
		"existing_products":  []string{"basic_checking"},
	}
}

// cannedResult is a result with a distinct label per category.
func cannedResult() *recommend.Result {
	res := &recommend.Result{
		ClusterID:            2,
		SegmentDistance:      1.25,
		FinancialHealthScore: 61.5,
		BundleVersion:        4,
	}
	for i, c := range recommend.Categories {
		probs := make([]float64, c.NumLabels())
		probs[i] = 0.75
		probs[(i+1)%len(probs)] = 0.25
		res.Recommendations[i] = recommend.CategoryRecommendation{
			Category:      c,
			Label:         c.Label(i),
			LabelIndex:    i,
			Confidence:    0.75,
			Probabilities: probs,
		}
	}
	return res
}
