// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package cache provides a thread-safe in-memory cache with TTL support.

It backs short-lived read models that are expensive to rebuild on every
request: the admin dashboard statistics (30 second TTL) and the system
settings row consulted on every upload.

# Usage

	c := cache.New(30 * time.Second)
	defer c.Close()

	if v, ok := c.Get(cache.KeyAdminStats); ok {
	    return v.(*models.AdminStats), nil
	}
	stats := rebuild()
	c.Set(cache.KeyAdminStats, stats)

Entries expire lazily on Get and are also swept by a background goroutine
until Close is called. Writers that change the underlying data call Delete
to invalidate the matching key.
*/
package cache
