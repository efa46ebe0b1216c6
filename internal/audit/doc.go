// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package audit records security and access events: logins, downloads,
// share and permission changes, and administrative actions.
//
// # Event Types
//
// Authentication:
//   - auth.success, auth.failure, auth.lockout
//
// File access:
//   - file.upload, file.download, file.delete
//
// Sharing and permissions:
//   - share.created, share.accessed, share.deleted
//   - permission.granted, permission.revoked
//
// Administration:
//   - folder.created, folder.updated, folder.deleted
//   - user.created, user.modified, user.deleted
//   - settings.changed
//
// # Architecture
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> BreakerStore -> DuckDBStore
//	                     |                      |                |
//	                 Non-blocking         Background       Trips open on a
//	                                      goroutine        failing sink
//
// Events are buffered so request handlers never wait on the audit sink. When
// the buffer is full the event is dropped and counted. The breaker keeps a
// failing DuckDB file from stalling the writer on every event.
//
// Login and download logs are plain queries over the stored events filtered
// by type, so there is no separate log table.
package audit
