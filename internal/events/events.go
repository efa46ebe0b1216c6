// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package events carries domain events from the services to their
// consumers (the audit trail and metrics) over an in-process Watermill
// GoChannel pub/sub. Publishing never blocks a request on a consumer.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/squadfile/internal/audit"
)

// Topic is the single topic every domain event is published on.
const Topic = "squadfile.domain"

// PoisonTopic receives events a consumer could not handle after retries.
const PoisonTopic = "squadfile.domain.poison"

// Type names a domain event. Values match audit event types so the audit
// consumer can map them one to one.
type Type = audit.EventType

// Event is a domain event. Fields that do not apply are left empty.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Success    bool      `json:"success"`

	ActorID   int64  `json:"actor_id"`
	ActorName string `json:"actor_name,omitempty"`

	TargetID   int64  `json:"target_id,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	TargetName string `json:"target_name,omitempty"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Reason explains a failure (bad password, locked, expired).
	Reason string `json:"reason,omitempty"`

	Details map[string]interface{} `json:"details,omitempty"`
}

// Publisher accepts domain events. Implementations must not block on
// consumers and must not fail the caller.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) {}

// Recorder keeps published events in memory. Used by service tests.
type Recorder struct {
	Events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Marshal encodes an event for the wire.
func Marshal(e Event) ([]byte, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("event type is required")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an event from the wire.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event type is required")
	}
	return e, nil
}
