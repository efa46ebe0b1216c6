// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package models holds the domain types shared by storage, services and the
// HTTP layer: users and roles, folders and grants, file records, shares,
// system settings, and the sentinel errors every layer maps to a status.
package models
