// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const fileSuffix = ".gob.gz"

var (
	// ErrModelNotFound is returned when no stored model matches the requested
	// name and version.
	ErrModelNotFound = errors.New("model not found")

	// ErrChecksum is returned when a stored model fails integrity verification.
	ErrChecksum = errors.New("model checksum mismatch")

	// ErrVersionExists is returned when Save would replace a committed
	// version, typically one written by another process sharing the
	// directory.
	ErrVersionExists = errors.New("model version already exists")
)

// ModelMetadata contains information about a stored model.
type ModelMetadata struct {
	// Name is the artifact name (e.g., "bundle").
	Name string `json:"name"`

	// Version is the model version (monotonically increasing).
	Version int `json:"version"`

	// TrainedAt is when the model was trained.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the model was saved.
	SavedAt time.Time `json:"saved_at"`

	// SchemaVersion is the feature schema version the model was trained on.
	SchemaVersion int `json:"schema_version"`

	// Seed is the random seed used during training.
	Seed int64 `json:"seed"`

	// RowCount is the number of usable training rows.
	RowCount int `json:"row_count"`

	// Checksum is the SHA-256 checksum of the uncompressed model data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed model size in bytes.
	SizeBytes int64 `json:"size_bytes"`

	// TrainingDurationMS is how long training took.
	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// Store manages versioned model persistence in a single directory. Several
// processes may share the directory: lookups of the latest version rescan
// it, and a committed version is never overwritten.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// versions holds every known version per artifact name, ascending.
	versions map[string][]int
}

// NewStore creates a new model store at the given directory.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string][]int),
	}

	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan existing models: %w", err)
	}

	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// scanModels rebuilds the version index from the files on disk. The index
// is left unchanged on error. Caller holds s.mu for writing.
func (s *Store) scanModels() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	index := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseModelFilename(entry.Name())
		if !ok {
			continue
		}
		index[name] = append(index[name], version)
	}
	for name := range index {
		sort.Ints(index[name])
	}
	s.versions = index

	return nil
}

// parseModelFilename extracts the artifact name and version from a filename
// like "bundle_v3.gob.gz".
func parseModelFilename(filename string) (name string, version int, ok bool) {
	if !strings.HasSuffix(filename, fileSuffix) {
		return "", 0, false
	}
	base := strings.TrimSuffix(filename, fileSuffix)

	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}

	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version <= 0 {
		return "", 0, false
	}

	return base[:idx], version, true
}

// storedFile is the on-disk format for model files.
type storedFile struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// Save stores a model with the given name and version. The file is written
// to a temporary path and hard-linked into place, so readers never observe
// a partially written model and an existing version is never replaced
// (ErrVersionExists).
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *Store) Save(ctx context.Context, name string, version int, data interface{}, meta ModelMetadata) error {
	if version <= 0 {
		return fmt.Errorf("model version must be positive, got %d", version)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()
	meta.Name = name
	meta.Version = version

	final := s.modelPath(name, version)
	tmp, err := os.CreateTemp(s.baseDir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) } //nolint:errcheck // best-effort removal of temp file

	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}
	if err := gob.NewEncoder(tmp).Encode(sf); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error already being returned
		cleanup()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error already being returned
		cleanup()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close model file: %w", err)
	}
	err = os.Link(tmpName, final)
	cleanup()
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			s.addVersion(name, version)
			return fmt.Errorf("%w: %s v%d", ErrVersionExists, name, version)
		}
		return fmt.Errorf("commit model file: %w", err)
	}

	s.addVersion(name, version)
	return nil
}

func (s *Store) addVersion(name string, version int) {
	list := s.versions[name]
	i := sort.SearchInts(list, version)
	if i < len(list) && list[i] == version {
		return
	}
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = version
	s.versions[name] = list
}

// Load loads a model by name and version into target.
// If version is 0, loads the latest version.
func (s *Store) Load(ctx context.Context, name string, version int, target interface{}) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if version == 0 {
		latest, ok := s.LatestVersion(name)
		if !ok {
			return nil, fmt.Errorf("%w: no versions of %s", ErrModelNotFound, name)
		}
		version = latest
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sf, err := s.readFile(name, version)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress %s v%d: %v", ErrChecksum, name, version, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s v%d: %v", ErrChecksum, name, version, err)
	}

	hash := sha256.Sum256(rawData)
	checksum := hex.EncodeToString(hash[:])
	if checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksum, sf.Metadata.Checksum, checksum)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	return &sf.Metadata, nil
}

// readFile decodes the on-disk envelope for one version. Caller holds s.mu.
func (s *Store) readFile(name string, version int) (*storedFile, error) {
	f, err := os.Open(s.modelPath(name, version)) //nolint:gosec // path is constructed from trusted name parameter
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // error on close after read is not actionable

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("%w: read %s v%d: %v", ErrChecksum, name, version, err)
	}
	return &sf, nil
}

// LatestVersion returns the latest version number for a model, including
// versions saved by other processes since the last lookup. If the directory
// cannot be read the last known index is used.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.scanModels() //nolint:errcheck // falls back to the current index
	list := s.versions[name]
	if len(list) == 0 {
		return 0, false
	}
	return list[len(list)-1], true
}

// NextVersion returns the version a newly trained model should be saved as.
func (s *Store) NextVersion(name string) int {
	latest, _ := s.LatestVersion(name)
	return latest + 1
}

// Versions returns metadata for every stored version of a model, ascending.
// Files that cannot be decoded are skipped.
func (s *Store) Versions(ctx context.Context, name string) ([]ModelMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scanModels(); err != nil {
		return nil, fmt.Errorf("scan models: %w", err)
	}

	list := s.versions[name]
	out := make([]ModelMetadata, 0, len(list))
	for _, v := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := s.readFile(name, v)
		if err != nil {
			continue
		}
		out = append(out, sf.Metadata)
	}
	return out, nil
}

// Delete removes a specific model version.
func (s *Store) Delete(ctx context.Context, name string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.modelPath(name, version)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s v%d", ErrModelNotFound, name, version)
		}
		return fmt.Errorf("delete model: %w", err)
	}
	s.removeVersion(name, version)
	return nil
}

func (s *Store) removeVersion(name string, version int) {
	list := s.versions[name]
	i := sort.SearchInts(list, version)
	if i >= len(list) || list[i] != version {
		return
	}
	list = append(list[:i], list[i+1:]...)
	if len(list) == 0 {
		delete(s.versions, name)
		return
	}
	s.versions[name] = list
}

// Prune removes old model versions, keeping only the latest keepVersions.
// It returns the number of versions removed.
func (s *Store) Prune(ctx context.Context, name string, keepVersions int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keepVersions < 1 {
		keepVersions = 1
	}
	if err := s.scanModels(); err != nil {
		return 0, fmt.Errorf("scan models: %w", err)
	}

	list := append([]int(nil), s.versions[name]...)
	if len(list) <= keepVersions {
		return 0, nil
	}

	removed := 0
	for _, v := range list[:len(list)-keepVersions] {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.Remove(s.modelPath(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("prune %s v%d: %w", name, v, err)
		}
		s.removeVersion(name, v)
		removed++
	}
	return removed, nil
}

// modelPath returns the file path for a model.
func (s *Store) modelPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
