// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authentication events
	EventTypeAuthSuccess EventType = "auth.success"
	EventTypeAuthFailure EventType = "auth.failure"
	EventTypeAuthLockout EventType = "auth.lockout"

	// File events
	EventTypeFileUpload   EventType = "file.upload"
	EventTypeFileDownload EventType = "file.download"
	EventTypeFileDelete   EventType = "file.delete"

	// Folder events
	EventTypeFolderCreated EventType = "folder.created"
	EventTypeFolderUpdated EventType = "folder.updated"
	EventTypeFolderDeleted EventType = "folder.deleted"

	// Permission events
	EventTypePermissionGranted EventType = "permission.granted"
	EventTypePermissionRevoked EventType = "permission.revoked"

	// Share events
	EventTypeShareCreated  EventType = "share.created"
	EventTypeShareAccessed EventType = "share.accessed"
	EventTypeShareDeleted  EventType = "share.deleted"

	// User management events
	EventTypeUserCreated  EventType = "user.created"
	EventTypeUserModified EventType = "user.modified"
	EventTypeUserDeleted  EventType = "user.deleted"

	// Configuration events
	EventTypeSettingsChanged EventType = "settings.changed"
)

// LoginEventTypes are the types that make up the login log.
var LoginEventTypes = []EventType{EventTypeAuthSuccess, EventTypeAuthFailure, EventTypeAuthLockout}

// DownloadEventTypes are the types that make up the download log.
var DownloadEventTypes = []EventType{EventTypeFileDownload}

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)

// Event represents a security audit event.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Outcome   Outcome   `json:"outcome"`

	// Actor who performed the action. Anonymous share access has ID "0".
	Actor Actor `json:"actor"`

	// Target of the action (optional).
	Target *Target `json:"target,omitempty"`

	Source Source `json:"source"`

	Action      string `json:"action"`
	Description string `json:"description"`

	// Metadata contains event-specific details such as byte counts or the
	// granted capability set.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Actor represents who performed an action.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"` // user, anonymous, system
	Name string `json:"name,omitempty"`
}

// Target represents the object of an action.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"` // file, folder, share, user, settings
	Name string `json:"name,omitempty"`
}

// Source represents where a request originated.
type Source struct {
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
}

// Store defines the interface for audit event persistence.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
	// Delete removes events older than the retention cutoff.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	Types    []EventType `json:"types,omitempty"`
	Outcomes []Outcome   `json:"outcomes,omitempty"`

	ActorID    string `json:"actor_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	TargetType string `json:"target_type,omitempty"`
	SourceIP   string `json:"source_ip,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// SearchText matches description, action, actor name and target name.
	SearchText string `json:"search_text,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}
