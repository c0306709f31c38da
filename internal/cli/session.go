// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package cli

import (
	"fmt"

	"github.com/tomtom215/finsegment/internal/events"
	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
	"github.com/tomtom215/finsegment/internal/runs"
)

// session is an engine wired to the configured bundle store and, for
// training, the run ledger and event bus.
type session struct {
	engine *recommend.Engine
	ledger *runs.Store
	bus    *events.Bus
}

// openSession builds the engine. withTraining also opens the ledger and
// the bus so a run is recorded and announced like a server run.
func (a *app) openSession(withTraining bool) (_ *session, err error) {
	s := &session{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	store, err := storage.NewStore(a.cfg.Models.Dir)
	if err != nil {
		return nil, fmt.Errorf("open bundle store: %w", err)
	}
	s.engine, err = recommend.NewEngine(&a.cfg.Recommend, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.engine.SetStore(store)
	s.engine.SetRetention(a.cfg.Models.Keep)

	if !withTraining {
		return s, nil
	}

	s.ledger, err = runs.Open(&a.cfg.Runs, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	s.engine.SetRecorder(s.ledger)

	s.bus, err = events.New(&a.cfg.Events, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	s.engine.SetPublisher(s.bus)
	return s, nil
}

func (s *session) close() {
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event bus")
		}
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing run ledger")
		}
	}
}
