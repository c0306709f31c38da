// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/recommend/storage"
)

type fakeRecorder struct {
	mu      sync.Mutex
	reports []*TrainingReport
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, r *TrainingReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	versions []int
	runIDs   []string
}

func (f *fakePublisher) PublishBundle(_ context.Context, version int, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versions = append(f.versions, version)
	f.runIDs = append(f.runIDs, runID)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *storage.Store) {
	t.Helper()
	engine, err := NewEngine(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	engine.SetStore(store)
	return engine, store
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine(nil) error = %v", err)
	}
	if engine.Ready() {
		t.Error("new engine should not be ready")
	}

	bad := DefaultConfig()
	bad.Clustering.K = 1
	if _, err := NewEngine(bad, zerolog.Nop()); err == nil {
		t.Error("NewEngine() should reject invalid config")
	}
}

func TestEngine_RecommendBeforeTraining(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.Recommend(context.Background(), sampleProfile()); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Recommend() error = %v, want ErrModelNotReady", err)
	}
}

func TestEngine_TrainPersistsRecordsAndPublishes(t *testing.T) {
	engine, store := newTestEngine(t)
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	engine.SetRecorder(rec)
	engine.SetPublisher(pub)
	ctx := context.Background()

	report, err := engine.Train(ctx, StaticRows(syntheticRows(150, 1)))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if report.Version != 1 {
		t.Errorf("report.Version = %d, want 1", report.Version)
	}
	if v, ok := store.LatestVersion(BundleName); !ok || v != 1 {
		t.Errorf("store latest = %d, %v; want 1", v, ok)
	}
	if !engine.Ready() || engine.Handle().Load().Version != 1 {
		t.Error("trained bundle should be served")
	}
	if len(rec.reports) != 1 || rec.reports[0] != report {
		t.Errorf("recorder got %d reports", len(rec.reports))
	}
	if len(pub.versions) != 1 || pub.versions[0] != 1 || pub.runIDs[0] != report.RunID {
		t.Errorf("publisher got %v %v", pub.versions, pub.runIDs)
	}

	status := engine.Status()
	if status.IsTraining || status.ModelVersion != 1 || status.RowCount != 150 || status.LastError != "" {
		t.Errorf("Status() = %+v", status)
	}

	res, err := engine.Recommend(ctx, sampleProfile())
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.BundleVersion != 1 {
		t.Errorf("BundleVersion = %d, want 1", res.BundleVersion)
	}

	report2, err := engine.Train(ctx, StaticRows(syntheticRows(150, 2)))
	if err != nil {
		t.Fatalf("second Train() error = %v", err)
	}
	if report2.Version != 2 || engine.Handle().Load().Version != 2 {
		t.Errorf("second run version = %d, served %d", report2.Version, engine.Handle().Load().Version)
	}

	versions, err := engine.Versions(ctx)
	if err != nil || len(versions) != 2 {
		t.Errorf("Versions() = %d, %v; want 2", len(versions), err)
	}
}

func TestEngine_RecorderFailureDoesNotFailTraining(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.SetRecorder(&fakeRecorder{err: errors.New("ledger down")})

	if _, err := engine.Train(context.Background(), StaticRows(syntheticRows(100, 1))); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if !engine.Ready() {
		t.Error("bundle should still be committed")
	}
}

func TestEngine_TrainingFailureKeepsServingBundle(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := engine.Train(ctx, StaticRows(syntheticRows(100, 1))); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Train(ctx, StaticRows(nil)); !errors.Is(err, ErrTrainingData) {
		t.Fatalf("Train(empty) error = %v, want ErrTrainingData", err)
	}
	status := engine.Status()
	if status.LastError == "" {
		t.Error("LastError should record the failure")
	}
	if engine.Handle().Load().Version != 1 {
		t.Error("failed run must not replace the served bundle")
	}
}

func TestEngine_ConcurrentTrainingRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := RowsFunc(func(ctx context.Context) ([]TrainingRow, error) {
		close(entered)
		<-release
		return syntheticRows(100, 1), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := engine.Train(context.Background(), blocking)
		done <- err
	}()

	<-entered
	if !engine.Status().IsTraining {
		t.Error("status should report training in progress")
	}
	if _, err := engine.Train(context.Background(), StaticRows(syntheticRows(100, 2))); !errors.Is(err, ErrTrainingInProgress) {
		t.Errorf("concurrent Train() error = %v, want ErrTrainingInProgress", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
}

func TestEngine_Reload(t *testing.T) {
	trainer, trainerStore := newTestEngine(t)
	ctx := context.Background()
	for seed := int64(1); seed <= 2; seed++ {
		if _, err := trainer.Train(ctx, StaticRows(syntheticRows(100, seed))); err != nil {
			t.Fatal(err)
		}
	}

	// a second process sharing the store
	server, err := NewEngine(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewStore(trainerStore.Dir())
	if err != nil {
		t.Fatal(err)
	}
	server.SetStore(store)

	b, err := server.Reload(ctx, 0)
	if err != nil {
		t.Fatalf("Reload(latest) error = %v", err)
	}
	if b.Version != 2 || !server.Ready() {
		t.Errorf("Reload(latest) version = %d", b.Version)
	}

	// explicit reload permits rollback
	if b, err := server.Reload(ctx, 1); err != nil || b.Version != 1 {
		t.Fatalf("Reload(1) = %v, %v", b, err)
	}

	swapped, err := server.ReloadIfNewer(ctx, 1)
	if err != nil || swapped {
		t.Errorf("ReloadIfNewer(1) = %v, %v; want false", swapped, err)
	}
	swapped, err = server.ReloadIfNewer(ctx, 2)
	if err != nil || !swapped || server.Handle().Load().Version != 2 {
		t.Errorf("ReloadIfNewer(2) = %v, %v", swapped, err)
	}

	if _, err := server.Reload(ctx, 9); !errors.Is(err, storage.ErrModelNotFound) {
		t.Errorf("Reload(9) error = %v, want ErrModelNotFound", err)
	}
	if server.Handle().Load().Version != 2 {
		t.Error("failed reload must keep the current bundle")
	}
}

func TestEngine_ReloadWithoutStore(t *testing.T) {
	engine, err := NewEngine(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Reload(context.Background(), 0); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Reload() error = %v, want ErrModelNotReady", err)
	}

	// without a store versions advance from the served bundle
	report, err := engine.Train(context.Background(), StaticRows(syntheticRows(100, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if report.Version != 1 {
		t.Errorf("Version = %d, want 1", report.Version)
	}
}

func TestEngine_RetentionPrunesOldVersions(t *testing.T) {
	engine, store := newTestEngine(t)
	engine.SetRetention(2)
	ctx := context.Background()

	for i := range 3 {
		if _, err := engine.Train(ctx, StaticRows(syntheticRows(120, int64(i+1)))); err != nil {
			t.Fatalf("Train() #%d error = %v", i+1, err)
		}
	}
	versions, err := store.Versions(ctx, BundleName)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0].Version == 1 || versions[1].Version == 1 {
		t.Errorf("Versions() = %+v, want versions 2 and 3", versions)
	}
	if engine.Handle().Load().Version != 3 {
		t.Errorf("served version = %d, want 3", engine.Handle().Load().Version)
	}
}
