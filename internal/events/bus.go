// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// BreakerConfig configures the circuit breaker around publishing.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// Config configures the event bus.
type Config struct {
	// URL is the NATS server URL. Empty selects the in-process bus.
	URL string `koanf:"url"`

	// Topic carries bundle-published events.
	Topic string `koanf:"topic"`

	// Source identifies this process in published events.
	Source string `koanf:"source"`

	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// DefaultConfig returns an in-process bus configuration.
func DefaultConfig() *Config {
	return &Config{
		Topic:         DefaultTopic,
		Source:        "finsegment",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		CloseTimeout:  10 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Topic == "" {
		return errors.New("event topic is required")
	}
	if c.Breaker.FailureThreshold == 0 {
		return errors.New("breaker failure threshold must be positive, got 0")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("breaker timeout must be positive, got %v", c.Breaker.Timeout)
	}
	return nil
}

// Bus publishes and subscribes to bundle-published events. It satisfies
// recommend.BundlePublisher.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[any]
	config     Config
	logger     zerolog.Logger
	transport  string

	mu     sync.RWMutex
	closed bool
}

var _ recommend.BundlePublisher = (*Bus)(nil)

// New returns a NATS bus when cfg.URL is set and an in-process bus otherwise.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *Config, logger zerolog.Logger) (*Bus, error) {
	if cfg.URL == "" {
		return NewChannelBus(cfg, logger)
	}
	return NewNATSBus(cfg, logger)
}

// NewChannelBus returns an in-process bus. Events only reach subscribers in
// the same process.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewChannelBus(cfg *Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events config: %w", err)
	}
	logger = logger.With().Str("component", "events").Logger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
	}, NewLoggerAdapter(logger))
	return newBus(cfg, logger, pubsub, pubsub, "gochannel"), nil
}

// NewNATSBus returns a bus over core NATS. Every subscribing process
// receives every event.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewNATSBus(cfg *Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events config: %w", err)
	}
	if cfg.URL == "" {
		return nil, errors.New("NATS URL is required")
	}
	logger = logger.With().Str("component", "events").Logger()
	wmLogger := NewLoggerAdapter(logger)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				wmLogger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wmLogger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	jetStream := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jetStream,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jetStream,
	}, wmLogger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // best effort on failed construction
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return newBus(cfg, logger, pub, sub, "nats"), nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newBus(cfg *Config, logger zerolog.Logger, pub message.Publisher, sub message.Subscriber, transport string) *Bus {
	b := &Bus{
		publisher:  pub,
		subscriber: sub,
		config:     *cfg,
		logger:     logger,
		transport:  transport,
	}
	b.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "events-" + transport,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("event publisher circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
	return b
}

// Transport names the underlying pub/sub implementation.
func (b *Bus) Transport() string { return b.transport }

// Topic returns the bundle event topic.
func (b *Bus) Topic() string { return b.config.Topic }

// BreakerState reports the publisher circuit breaker state.
func (b *Bus) BreakerState() string { return b.breaker.State().String() }

// Publish sends an event through the circuit breaker.
func (b *Bus) Publish(ctx context.Context, event *BundlePublished) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := event.Message()
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	_, err = b.breaker.Execute(func() (any, error) {
		return nil, b.publisher.Publish(b.config.Topic, msg)
	})
	metrics.RecordEventPublish(err)
	if err != nil {
		return fmt.Errorf("publish bundle event: %w", err)
	}

	b.logger.Info().
		Int("version", event.Version).
		Str("event_id", event.EventID).
		Str("transport", b.transport).
		Msg("bundle event published")
	return nil
}

// PublishBundle announces a committed bundle version.
func (b *Bus) PublishBundle(ctx context.Context, version int, runID string) error {
	return b.Publish(ctx, NewBundlePublished(version, runID, b.config.Source))
}

// Subscribe returns the raw message stream for the bundle topic. The
// channel closes when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.subscriber.Subscribe(ctx, b.config.Topic)
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	// gochannel uses a single value for both roles
	if any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
