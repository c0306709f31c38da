// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package storage provides versioned persistence for trained model bundles.
//
// Models are gob encoded, gzip compressed and checksummed with SHA-256 so a
// corrupted file is rejected on load instead of producing wrong predictions.
// The store is agnostic of the value it persists; the recommend package
// stores its ModelBundle under the name "bundle".
//
// # Storage Format
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata)
//	  - CompressedData (gzip-compressed gob-encoded model state)
//
// Writes go to a temporary file in the same directory followed by a rename,
// so a reader never sees a half-written version.
//
// # Usage Example
//
//	store, err := storage.NewStore("/data/models")
//	if err != nil {
//	    return err
//	}
//
//	version := store.NextVersion("bundle")
//	err = store.Save(ctx, "bundle", version, bundle, storage.ModelMetadata{
//	    TrainedAt: bundle.TrainedAt,
//	    RowCount:  report.UsedRows,
//	})
//
//	var loaded recommend.Bundle
//	meta, err := store.Load(ctx, "bundle", 0, &loaded) // 0 = latest version
//
// # Errors
//
// Load returns ErrModelNotFound when the version does not exist and
// ErrChecksum when the file is corrupt. Both are matched with errors.Is.
//
// # Thread Safety
//
// All store operations are safe for concurrent use. Saves take the write
// lock; loads and listings share the read lock.
package storage
