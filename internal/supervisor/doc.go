// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package supervisor runs SquadFile's long-lived goroutines under suture v4.

# Tree

	RootSupervisor ("squadfile")
	├── "maintenance-layer"
	│   ├── upload-sweeper    (files.Sweeper)
	│   ├── share-limiter     (api.ShareLimiter eviction)
	│   └── audit-retention   (audit.Logger.RunRetention)
	├── "events-layer"
	│   └── event-bus         (watermill router)
	└── "api-layer"
	    └── http-server

A crashing sweeper or event consumer is restarted inside its own layer and
the HTTP server keeps serving.

# Restart Policy

Each supervisor counts failures with exponential decay. Once the count passes
FailureThreshold the supervisor waits FailureBackoff before the next restart.
Zero TreeConfig fields fall back to DefaultTreeConfig.

A service returning suture.ErrDoNotRestart is removed from the tree. The
FuncService wrapper in the services package uses this when a run function
returns cleanly before shutdown, for example after the event bus is closed.

# Not Supervised

The SQLite store, the blob directory and the Badger token store are plain
libraries opened and closed by main. The DuckDB audit store sits behind a
circuit breaker instead.

# Shutdown

Cancelling the Serve context stops every layer. Services that overrun
ShutdownTimeout show up in UnstoppedServiceReport.
*/
package supervisor
