// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package services adapts SquadFile components to suture.Service.
//
// Components that already expose Serve(ctx) error, like files.Sweeper and
// api.ShareLimiter, are added to the tree directly. The wrappers here cover
// the rest: HTTPServerService for *http.Server and FuncService for plain
// blocking run functions.
package services
