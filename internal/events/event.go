// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultTopic carries bundle-published events.
const DefaultTopic = "finsegment.bundle.published"

// Metadata keys set on every published message.
const (
	metaVersion = "bundle_version"
	metaSource  = "source"
)

// ErrInvalidEvent is returned for payloads that do not describe a bundle.
var ErrInvalidEvent = errors.New("invalid bundle event")

// BundlePublished announces that a new bundle version has been written to
// the shared model store.
type BundlePublished struct {
	EventID     string    `json:"event_id"`
	Version     int       `json:"version"`
	RunID       string    `json:"run_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NewBundlePublished builds an event with a fresh ID.
func NewBundlePublished(version int, runID, source string) *BundlePublished {
	return &BundlePublished{
		EventID:     uuid.New().String(),
		Version:     version,
		RunID:       runID,
		Source:      source,
		PublishedAt: time.Now().UTC(),
	}
}

// Validate checks required fields.
func (e *BundlePublished) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if e.Version <= 0 {
		return fmt.Errorf("%w: version must be positive, got %d", ErrInvalidEvent, e.Version)
	}
	return nil
}

// Message encodes the event as a watermill message. The event ID doubles
// as the message UUID.
func (e *BundlePublished) Message() (*message.Message, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal bundle event: %w", err)
	}
	msg := message.NewMessage(e.EventID, data)
	msg.Metadata.Set(metaVersion, fmt.Sprintf("%d", e.Version))
	if e.Source != "" {
		msg.Metadata.Set(metaSource, e.Source)
	}
	return msg, nil
}

// ParseBundlePublished decodes and validates a message payload.
func ParseBundlePublished(msg *message.Message) (*BundlePublished, error) {
	var e BundlePublished
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
