// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package runs keeps a durable ledger of training reports in BadgerDB,
// keyed by the bundle version each run produced.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/recommend"
)

// ErrRunNotFound is returned when no report exists for a version or run ID.
var ErrRunNotFound = errors.New("training run not found")

// Key prefixes for BadgerDB storage
const (
	runKeyPrefix   = "run:"
	runIDKeyPrefix = "run_id:"
)

// Config selects where the ledger lives.
type Config struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps the ledger in memory only.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs each write.
	SyncWrites bool `koanf:"sync_writes"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("runs ledger path is required unless in_memory is set")
	}
	return nil
}

// Store is the Badger-backed training ledger. It satisfies
// recommend.RunRecorder.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

var _ recommend.RunRecorder = (*Store)(nil)

// Open opens (or creates) the ledger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg *Config, logger zerolog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid runs config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{db: db, logger: logger.With().Str("component", "runs").Logger()}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("runs ledger opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// versionKey zero-pads so that byte order equals numeric order.
func versionKey(version int) []byte {
	return []byte(fmt.Sprintf("%s%010d", runKeyPrefix, version))
}

// Record stores a report, replacing any earlier report for the same version.
func (s *Store) Record(ctx context.Context, report *recommend.TrainingReport) error {
	if report == nil {
		return errors.New("nil training report")
	}
	if report.Version <= 0 {
		return fmt.Errorf("report version must be positive, got %d", report.Version)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(versionKey(report.Version), data); err != nil {
			return fmt.Errorf("set report: %w", err)
		}
		if report.RunID != "" {
			idKey := []byte(runIDKeyPrefix + report.RunID)
			if err := txn.Set(idKey, []byte(strconv.Itoa(report.Version))); err != nil {
				return fmt.Errorf("set run id mapping: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Int("version", report.Version).
		Str("run_id", report.RunID).
		Msg("training run recorded")
	return nil
}

// Get returns the report for a bundle version.
func (s *Store) Get(ctx context.Context, version int) (*recommend.TrainingReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report recommend.TrainingReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByRunID returns the report with the given run ID.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*recommend.TrainingReport, error) {
	var version int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runIDKeyPrefix + runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("get run id: %w", err)
		}
		return item.Value(func(val []byte) error {
			v, err := strconv.Atoi(string(val))
			if err != nil {
				return fmt.Errorf("corrupt run id mapping: %w", err)
			}
			version = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, version)
}

// List returns up to limit reports, newest version first. limit <= 0
// returns every report.
func (s *Store) List(ctx context.Context, limit int) ([]*recommend.TrainingReport, error) {
	var out []*recommend.TrainingReport

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse iteration starts past the last key with the prefix
		seek := append([]byte(runKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var report recommend.TrainingReport
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &report)
			}); err != nil {
				return fmt.Errorf("decode report %s: %w", it.Item().Key(), err)
			}
			out = append(out, &report)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Latest returns the report of the highest recorded version.
func (s *Store) Latest(ctx context.Context) (*recommend.TrainingReport, error) {
	reports, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrRunNotFound
	}
	return reports[0], nil
}
