// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package dataset

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/finsegment/internal/recommend"
)

// Open returns the training row source for a configuration: a file loader
// when path is set, otherwise a synthetic generator of samples rows seeded
// with seed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, samples int, seed int64, logger zerolog.Logger) (recommend.RowSource, error) {
	if path != "" {
		l, err := NewLoader(path, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	logger.Debug().Int("samples", samples).Int64("seed", seed).Msg("using synthetic training data")
	return NewGenerator(seed).Source(samples), nil
}
