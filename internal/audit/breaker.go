// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package audit

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/squadfile/internal/logging"
)

// BreakerConfig controls when the audit sink is considered down.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
	MaxRequests      uint32
}

// DefaultBreakerConfig trips after five consecutive failures and probes
// again after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "audit-store",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerStore guards writes to another Store with a circuit breaker. While
// open, Save fails fast with gobreaker.ErrOpenState. Reads pass straight
// through so admins can still inspect what was written.
type BreakerStore struct {
	Store
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerStore wraps inner.
func NewBreakerStore(inner Store, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Audit store circuit breaker state changed")
		},
	}
	return &BreakerStore{Store: inner, cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// Save persists event through the breaker.
func (b *BreakerStore) Save(ctx context.Context, event *Event) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.Store.Save(ctx, event)
	})
	return err
}

// State reports the breaker state for health output.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}
