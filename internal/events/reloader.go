// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// MessageSource yields the bundle event stream. *Bus satisfies it.
type MessageSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// BundleReloader loads a bundle version if it is newer than the one being
// served. Satisfied by *recommend.Engine.
type BundleReloader interface {
	ReloadIfNewer(ctx context.Context, version int) (bool, error)
}

// ReloadHook observes the outcome of each handled event.
type ReloadHook func(version int, swapped bool, err error)

// Reloader consumes bundle-published events and hot-swaps the announced
// version into the serving engine. Stale and duplicate announcements are
// ignored by ReloadIfNewer.
type Reloader struct {
	source MessageSource
	target BundleReloader
	logger zerolog.Logger
	hook   ReloadHook
}

// NewReloader creates a reloader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReloader(source MessageSource, target BundleReloader, logger zerolog.Logger) *Reloader {
	return &Reloader{
		source: source,
		target: target,
		logger: logger.With().Str("component", "bundle-reloader").Logger(),
	}
}

// OnReload registers a hook called after each event is handled.
func (r *Reloader) OnReload(hook ReloadHook) {
	r.hook = hook
}

// RunWithContext processes events until ctx is done. It returns ctx.Err()
// on shutdown, or an error if the subscription ends unexpectedly so a
// supervisor can restart it.
func (r *Reloader) RunWithContext(ctx context.Context) error {
	messages, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.logger.Info().Msg("listening for bundle events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("bundle event subscription closed")
			}
			r.handle(ctx, msg)
		}
	}
}

// handle acks every message. Malformed events and failed loads are not
// redelivered.
func (r *Reloader) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := ParseBundlePublished(msg)
	if err != nil {
		r.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("discarding malformed bundle event")
		r.notify(0, false, err)
		return
	}

	swapped, err := r.target.ReloadIfNewer(ctx, event.Version)
	switch {
	case err != nil:
		r.logger.Error().Err(err).Int("version", event.Version).Msg("bundle reload failed")
	case swapped:
		r.logger.Info().Int("version", event.Version).Str("source", event.Source).Msg("bundle hot-swapped")
	default:
		r.logger.Debug().Int("version", event.Version).Msg("bundle event not newer than served bundle")
	}
	r.notify(event.Version, swapped, err)
}

func (r *Reloader) notify(version int, swapped bool, err error) {
	if r.hook != nil {
		r.hook(version, swapped, err)
	}
}
