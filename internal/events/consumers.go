// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package events

import (
	"context"
	"strconv"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/metrics"
)

// AuditLog is the part of audit.Logger the consumer needs.
type AuditLog interface {
	Log(event *audit.Event)
}

// AuditConsumer turns domain events into audit events.
func AuditConsumer(log AuditLog) func(ctx context.Context, e Event) error {
	return func(_ context.Context, e Event) error {
		log.Log(ToAudit(e))
		return nil
	}
}

// MetricsConsumer counts domain events that have a dedicated metric.
func MetricsConsumer() func(ctx context.Context, e Event) error {
	return func(_ context.Context, e Event) error {
		switch e.Type {
		case audit.EventTypeAuthSuccess:
			metrics.RecordLogin("success")
		case audit.EventTypeAuthFailure:
			if e.Reason == ReasonLocked {
				metrics.RecordLogin("locked")
			} else {
				metrics.RecordLogin("failure")
			}
		case audit.EventTypeAuthLockout:
			metrics.RecordLockout()
		case audit.EventTypeShareCreated:
			metrics.RecordShareCreated(e.TargetType)
		case audit.EventTypeFileDownload:
			via, _ := e.Details["via"].(string)
			if via == "" {
				via = "session"
			}
			metrics.RecordDownload(via)
		case audit.EventTypeFileUpload:
			var size int64
			if v, ok := e.Details["size"].(float64); ok {
				size = int64(v)
			}
			metrics.RecordUpload(size, nil)
		}
		return nil
	}
}

// Failure reasons shared by publishers and consumers.
const (
	ReasonBadPassword = "invalid_credentials"
	ReasonLocked      = "locked"
	ReasonInactive    = "inactive"
	ReasonUnknownUser = "unknown_user"
	ReasonExpired     = "expired"
)

// ToAudit maps a domain event to its audit record.
func ToAudit(e Event) *audit.Event {
	out := &audit.Event{
		Timestamp: e.OccurredAt,
		Type:      e.Type,
		Severity:  severityOf(e),
		Outcome:   audit.OutcomeSuccess,
		Actor:     actorOf(e),
		Source: audit.Source{
			IPAddress: e.IP,
			UserAgent: e.UserAgent,
		},
		Action:      actionOf(e.Type),
		Description: describe(e),
		RequestID:   e.RequestID,
	}
	if !e.Success {
		out.Outcome = audit.OutcomeFailure
	}
	if e.TargetType != "" {
		out.Target = &audit.Target{
			ID:   strconv.FormatInt(e.TargetID, 10),
			Type: e.TargetType,
			Name: e.TargetName,
		}
	}
	if len(e.Details) > 0 || e.Reason != "" {
		md := make(map[string]interface{}, len(e.Details)+1)
		for k, v := range e.Details {
			md[k] = v
		}
		if e.Reason != "" {
			md["reason"] = e.Reason
		}
		out.Metadata = audit.MustJSON(md)
	}
	return out
}

func actorOf(e Event) audit.Actor {
	if e.ActorID == 0 {
		return audit.Actor{ID: "0", Type: "anonymous", Name: e.ActorName}
	}
	return audit.Actor{ID: strconv.FormatInt(e.ActorID, 10), Type: "user", Name: e.ActorName}
}

func severityOf(e Event) audit.Severity {
	switch {
	case e.Type == audit.EventTypeAuthLockout:
		return audit.SeverityCritical
	case !e.Success:
		return audit.SeverityWarning
	case e.Type == audit.EventTypeUserDeleted, e.Type == audit.EventTypeSettingsChanged,
		e.Type == audit.EventTypePermissionGranted, e.Type == audit.EventTypePermissionRevoked:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}

func actionOf(t Type) string {
	switch t {
	case audit.EventTypeAuthSuccess, audit.EventTypeAuthFailure:
		return "authenticate"
	case audit.EventTypeAuthLockout:
		return "lockout"
	case audit.EventTypeFileUpload:
		return "upload"
	case audit.EventTypeFileDownload:
		return "download"
	case audit.EventTypeShareAccessed:
		return "access"
	case audit.EventTypePermissionGranted:
		return "grant"
	case audit.EventTypePermissionRevoked:
		return "revoke"
	case audit.EventTypeFolderCreated, audit.EventTypeShareCreated, audit.EventTypeUserCreated:
		return "create"
	case audit.EventTypeFolderUpdated, audit.EventTypeUserModified, audit.EventTypeSettingsChanged:
		return "update"
	default:
		return "delete"
	}
}

var descriptions = map[Type]string{
	audit.EventTypeAuthSuccess:       "User logged in",
	audit.EventTypeAuthFailure:       "Login failed",
	audit.EventTypeAuthLockout:       "Account locked after repeated failed logins",
	audit.EventTypeFileUpload:        "File uploaded",
	audit.EventTypeFileDownload:      "File downloaded",
	audit.EventTypeFileDelete:        "File deleted",
	audit.EventTypeFolderCreated:     "Folder created",
	audit.EventTypeFolderUpdated:     "Folder updated",
	audit.EventTypeFolderDeleted:     "Folder deleted",
	audit.EventTypePermissionGranted: "Folder permission granted",
	audit.EventTypePermissionRevoked: "Folder permission revoked",
	audit.EventTypeShareCreated:      "Share link created",
	audit.EventTypeShareAccessed:     "Share link accessed",
	audit.EventTypeShareDeleted:      "Share link deleted",
	audit.EventTypeUserCreated:       "User created",
	audit.EventTypeUserModified:      "User modified",
	audit.EventTypeUserDeleted:       "User deleted",
	audit.EventTypeSettingsChanged:   "System settings changed",
}

func describe(e Event) string {
	d, ok := descriptions[e.Type]
	if !ok {
		d = string(e.Type)
	}
	if e.Reason != "" {
		d += ": " + e.Reason
	}
	return d
}
