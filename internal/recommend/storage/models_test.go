// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type testState struct {
	Centroids [][]float64
	Labels    []string
	Seed      int64
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "new_dir")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.setup(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && store == nil {
				t.Error("NewStore() returned nil store without error")
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	data := testState{
		Centroids: [][]float64{{0.1, -0.25}, {3.5, 1e-9}},
		Labels:    []string{"a", "b"},
		Seed:      42,
	}
	trainedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := ModelMetadata{TrainedAt: trainedAt, SchemaVersion: 1, Seed: 42, RowCount: 800}

	if err := store.Save(ctx, "bundle", 1, data, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded testState
	got, err := store.Load(ctx, "bundle", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Name != "bundle" || got.Version != 1 {
		t.Errorf("metadata = %s v%d, want bundle v1", got.Name, got.Version)
	}
	if !got.TrainedAt.Equal(trainedAt) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, trainedAt)
	}
	if got.RowCount != 800 || got.SchemaVersion != 1 || got.Seed != 42 {
		t.Errorf("metadata fields not preserved: %+v", got)
	}
	if got.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
	if got.SizeBytes == 0 {
		t.Error("SizeBytes should not be zero")
	}

	// Floats must round-trip bit for bit.
	for i := range data.Centroids {
		for j := range data.Centroids[i] {
			if loaded.Centroids[i][j] != data.Centroids[i][j] {
				t.Errorf("Centroids[%d][%d] = %v, want %v", i, j, loaded.Centroids[i][j], data.Centroids[i][j])
			}
		}
	}
	if len(loaded.Labels) != 2 || loaded.Labels[1] != "b" {
		t.Errorf("Labels = %v", loaded.Labels)
	}
}

func TestStore_LoadLatest(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, "bundle", v, testState{Seed: int64(v)}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	var loaded testState
	meta, err := store.Load(ctx, "bundle", 0, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if meta.Version != 3 || loaded.Seed != 3 {
		t.Errorf("loaded v%d seed %d, want v3 seed 3", meta.Version, loaded.Seed)
	}
	if next := store.NextVersion("bundle"); next != 4 {
		t.Errorf("NextVersion() = %d, want 4", next)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	var loaded testState
	if _, err := store.Load(ctx, "bundle", 0, &loaded); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Load(latest) on empty store error = %v, want ErrModelNotFound", err)
	}
	if _, err := store.Load(ctx, "bundle", 7, &loaded); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Load(7) error = %v, want ErrModelNotFound", err)
	}
	if _, ok := store.LatestVersion("bundle"); ok {
		t.Error("LatestVersion() ok = true on empty store")
	}
	if next := store.NextVersion("bundle"); next != 1 {
		t.Errorf("NextVersion() = %d, want 1", next)
	}
}

func TestStore_SaveRejectsInvalidVersion(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Save(context.Background(), "bundle", 0, testState{}, ModelMetadata{}); err == nil {
		t.Error("Save(version 0) should fail")
	}
}

func TestStore_ScanExisting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	for _, v := range []int{2, 5} {
		if err := store.Save(ctx, "bundle", v, testState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	latest, ok := reopened.LatestVersion("bundle")
	if !ok || latest != 5 {
		t.Errorf("LatestVersion() = %d, %v; want 5, true", latest, ok)
	}

	metas, err := reopened.Versions(ctx, "bundle")
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(metas) != 2 || metas[0].Version != 2 || metas[1].Version != 5 {
		t.Errorf("Versions() = %+v, want v2 and v5 ascending", metas)
	}
}

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version int
		ok      bool
	}{
		{"bundle_v1.gob.gz", "bundle", 1, true},
		{"my_bundle_v12.gob.gz", "my_bundle", 12, true},
		{"bundle_v0.gob.gz", "", 0, false},
		{"bundle_vx.gob.gz", "", 0, false},
		{"bundle_v1.gob", "", 0, false},
		{"_v1.gob.gz", "", 0, false},
		{".bundle-123.tmp", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, version, ok := parseModelFilename(tt.in)
			if name != tt.name || version != tt.version || ok != tt.ok {
				t.Errorf("parseModelFilename(%q) = %q, %d, %v; want %q, %d, %v",
					tt.in, name, version, ok, tt.name, tt.version, tt.ok)
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	for v := 1; v <= 2; v++ {
		if err := store.Save(ctx, "bundle", v, testState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if err := store.Delete(ctx, "bundle", 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if latest, _ := store.LatestVersion("bundle"); latest != 1 {
		t.Errorf("LatestVersion() after delete = %d, want 1", latest)
	}
	if err := store.Delete(ctx, "bundle", 2); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("second Delete() error = %v, want ErrModelNotFound", err)
	}
}

func TestStore_Prune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()
	for v := 1; v <= 5; v++ {
		if err := store.Save(ctx, "bundle", v, testState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	removed, err := store.Prune(ctx, "bundle", 2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune() removed = %d, want 3", removed)
	}

	for v := 1; v <= 5; v++ {
		_, statErr := os.Stat(filepath.Join(dir, fmt.Sprintf("bundle_v%d.gob.gz", v)))
		exists := statErr == nil
		if want := v >= 4; exists != want {
			t.Errorf("version %d exists = %v, want %v", v, exists, want)
		}
	}
	if latest, _ := store.LatestVersion("bundle"); latest != 5 {
		t.Errorf("LatestVersion() = %d, want 5", latest)
	}

	removed, err = store.Prune(ctx, "bundle", 0)
	if err != nil || removed != 1 {
		t.Errorf("Prune(0) = %d, %v; want 1, nil (keeps at least one)", removed, err)
	}
}

func TestStore_ChecksumValidation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	data := testState{Centroids: [][]float64{{1, 2, 3, 4, 5, 6, 7, 8}}, Labels: []string{"x", "y", "z"}}
	if err := store.Save(ctx, "bundle", 1, data, ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	filename := filepath.Join(dir, "bundle_v1.gob.gz")
	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	// Flip bytes near the end where the compressed payload lives.
	for i := len(raw) - 12; i < len(raw)-4; i++ {
		raw[i] ^= 0xFF
	}
	if err := os.WriteFile(filename, raw, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var loaded testState
	if _, err := store.Load(ctx, "bundle", 1, &loaded); !errors.Is(err, ErrChecksum) {
		t.Errorf("Load() corrupted error = %v, want ErrChecksum", err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, "bundle", 1, testState{}, ModelMetadata{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
	if _, ok := store.LatestVersion("bundle"); ok {
		t.Error("cancelled save must not register a version")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if err := store.Save(ctx, "bundle", v, testState{Seed: int64(v)}, ModelMetadata{}); err != nil {
				t.Errorf("Save(%d) error = %v", v, err)
			}
		}(i)
	}
	wg.Wait()

	latest, ok := store.LatestVersion("bundle")
	if !ok || latest != 10 {
		t.Errorf("LatestVersion() = %d, %v; want 10, true", latest, ok)
	}
	metas, err := store.Versions(ctx, "bundle")
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(metas) != 10 {
		t.Errorf("len(Versions()) = %d, want 10", len(metas))
	}
}

func TestStore_SharedDirectory(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	b, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := a.Save(ctx, "bundle", 1, testState{Seed: 1}, ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if got := b.NextVersion("bundle"); got != 2 {
		t.Errorf("NextVersion() on second store = %d, want 2", got)
	}
	var loaded testState
	meta, err := b.Load(ctx, "bundle", 0, &loaded)
	if err != nil {
		t.Fatalf("Load(latest) on second store error = %v", err)
	}
	if meta.Version != 1 || loaded.Seed != 1 {
		t.Errorf("Load(latest) = v%d seed %d, want v1 seed 1", meta.Version, loaded.Seed)
	}

	err = b.Save(ctx, "bundle", 1, testState{Seed: 99}, ModelMetadata{})
	if !errors.Is(err, ErrVersionExists) {
		t.Fatalf("Save(existing version) error = %v, want ErrVersionExists", err)
	}
	loaded = testState{}
	if _, err := a.Load(ctx, "bundle", 1, &loaded); err != nil || loaded.Seed != 1 {
		t.Errorf("committed v1 changed: seed %d, err %v", loaded.Seed, err)
	}

	metas, err := a.Versions(ctx, "bundle")
	if err != nil || len(metas) != 1 {
		t.Errorf("Versions() = %d, %v; want 1", len(metas), err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the committed bundle", len(entries))
	}
}
