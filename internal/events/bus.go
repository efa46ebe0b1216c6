// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
)

// Config holds configuration for the event bus router.
type Config struct {
	// BufferSize is the per-subscriber channel buffer.
	BufferSize int64

	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultConfig returns production defaults for the bus.
func DefaultConfig() Config {
	return Config{
		BufferSize:           1024,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     2 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Bus publishes domain events and routes them to registered consumers.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter
}

// NewBus creates the pub/sub and a router with recovery, retry and a
// poison topic for events that keep failing.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outermost first: a handler that still fails after retries is moved to
	// the poison topic and acked, so GoChannel never redelivers it forever.
	poison, err := middleware.PoisonQueue(pubsub, PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	router.AddMiddleware(poison)
	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	router.AddMiddleware(retry.Middleware)

	b := &Bus{pubsub: pubsub, router: router, logger: logger}
	router.AddConsumerHandler("poison-log", PoisonTopic, pubsub, b.logPoisoned)
	return b, nil
}

// Publish encodes and publishes e. Failures are logged and counted, never
// returned.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if e.RequestID == "" {
		e.RequestID = logging.RequestIDFromContext(ctx)
	}
	payload, err := Marshal(e)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Dropping unencodable domain event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(e.Type))
	if err := b.pubsub.Publish(Topic, msg); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("type", string(e.Type)).Msg("Failed to publish domain event")
		return
	}
	metrics.RecordEventPublished(string(e.Type))
}

// Handle registers a consumer of every domain event under name.
func (b *Bus) Handle(name string, fn func(ctx context.Context, e Event) error) {
	b.router.AddConsumerHandler(name, Topic, b.pubsub, func(msg *message.Message) error {
		e, err := Unmarshal(msg.Payload)
		if err != nil {
			return err
		}
		return fn(msg.Context(), e)
	})
}

func (b *Bus) logPoisoned(msg *message.Message) error {
	logging.Warn().
		Str("message_id", msg.UUID).
		Str("type", msg.Metadata.Get("type")).
		Str("handler", msg.Metadata.Get(middleware.PoisonedHandlerKey)).
		Str("reason", msg.Metadata.Get(middleware.ReasonForPoisonedKey)).
		Msg("Domain event moved to poison topic")
	return nil
}

// Run starts routing and blocks until ctx is cancelled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running closes once the router has started all handlers.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	rerr := b.router.Close()
	perr := b.pubsub.Close()
	if rerr != nil {
		return rerr
	}
	return perr
}
