// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package api exposes SquadFile over HTTP.

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}

Service errors are mapped to status codes by WriteError according to the
sentinel they wrap (models.ErrNotFound is 404, models.ErrPermissionDenied is
403, and so on). Handlers never pick a status code for a service error
themselves.

Routing is done with chi. Authentication comes from auth.Middleware, route
families are guarded by casbin through authz.Middleware, and folder-level
decisions are made inside the services by the permission engine.

Anonymous share endpoints under /api/v1/s/{code} are throttled per client
IP by ShareLimiter so short codes cannot be enumerated.
*/
package api
