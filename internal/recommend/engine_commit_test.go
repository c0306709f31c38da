// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/recommend/storage"
)

// staleStore reports an outdated next version a given number of times, as a
// writer racing another process on the same directory would see.
type staleStore struct {
	*storage.Store
	stale atomic.Int32
}

func (s *staleStore) NextVersion(name string) int {
	if s.stale.Add(-1) >= 0 {
		return 1
	}
	return s.Store.NextVersion(name)
}

// slowStore delays Save past the training timeout.
type slowStore struct {
	*storage.Store
	delay time.Duration
}

//nolint:gocritic // meta passed by value matches BundleStore
func (s *slowStore) Save(ctx context.Context, name string, version int, data interface{}, meta storage.ModelMetadata) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Store.Save(ctx, name, version, data, meta)
}

func newEngineOnStore(t *testing.T, store BundleStore) *Engine {
	t.Helper()
	engine, err := NewEngine(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	engine.SetStore(store)
	return engine
}

func TestEngine_SharedStoreAllocatesDistinctVersions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	// both stores are opened on the empty directory before any training
	cliStore, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	serverStore, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	cli := newEngineOnStore(t, cliStore)
	server := newEngineOnStore(t, serverStore)

	first, err := cli.Train(ctx, StaticRows(syntheticRows(120, 1)))
	if err != nil {
		t.Fatalf("cli Train() error = %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("cli version = %d, want 1", first.Version)
	}

	swapped, err := server.ReloadIfNewer(ctx, first.Version)
	if err != nil || !swapped {
		t.Fatalf("server ReloadIfNewer(1) = %v, %v", swapped, err)
	}

	second, err := server.Train(ctx, StaticRows(syntheticRows(120, 2)))
	if err != nil {
		t.Fatalf("server Train() error = %v", err)
	}
	if second.Version != 2 {
		t.Errorf("server version = %d, want 2", second.Version)
	}

	metas, err := serverStore.Versions(ctx, BundleName)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("versions on disk = %d, want 2", len(metas))
	}
	if metas[0].Version != 1 || metas[0].RowCount != first.UsedRows {
		t.Errorf("v1 metadata = %+v, want the cli bundle", metas[0])
	}

	// the cli store sees the server's bundle as latest
	if v, ok := cliStore.LatestVersion(BundleName); !ok || v != 2 {
		t.Errorf("cli LatestVersion() = %d, %v; want 2", v, ok)
	}
	b, err := cli.Reload(ctx, 0)
	if err != nil || b.Version != 2 {
		t.Errorf("cli Reload(latest) = %v, %v; want v2", b, err)
	}
}

func TestEngine_CommitSkipsTakenVersion(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	base, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newEngineOnStore(t, base).Train(ctx, StaticRows(syntheticRows(120, 1))); err != nil {
		t.Fatal(err)
	}

	racing := &staleStore{Store: base}
	racing.stale.Store(2)
	report, err := newEngineOnStore(t, racing).Train(ctx, StaticRows(syntheticRows(120, 2)))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if report.Version != 2 {
		t.Errorf("version = %d, want 2", report.Version)
	}

	racing.stale.Store(maxCommitAttempts)
	if _, err := newEngineOnStore(t, racing).Train(ctx, StaticRows(syntheticRows(120, 3))); !errors.Is(err, storage.ErrVersionExists) {
		t.Errorf("Train() error = %v, want ErrVersionExists", err)
	}
}

func TestEngine_CommitOutlivesTrainingTimeout(t *testing.T) {
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Training.Timeout = 2 * time.Second
	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	engine.SetStore(&slowStore{Store: store, delay: 3 * time.Second})

	report, err := engine.Train(context.Background(), StaticRows(syntheticRows(120, 1)))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if v, ok := store.LatestVersion(BundleName); !ok || v != report.Version {
		t.Errorf("stored latest = %d, %v; want %d", v, ok, report.Version)
	}
}

func TestEngine_TrainedBundleNotRenumbered(t *testing.T) {
	tr, err := NewTrainer(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := tr.Train(context.Background(), StaticRows(syntheticRows(120, 1)))
	if err != nil {
		t.Fatal(err)
	}
	numbered := b.WithVersion(7)
	if b.Version != 0 {
		t.Errorf("original Version = %d, want 0", b.Version)
	}
	if numbered.Version != 7 || !numbered.Sealed() {
		t.Errorf("WithVersion(7) = version %d sealed %v", numbered.Version, numbered.Sealed())
	}
}
