// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
Package middleware provides the cross-cutting HTTP middleware installed on
every route: request IDs, access logging and Prometheus instrumentation.

All middleware has the chi signature func(http.Handler) http.Handler.

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)

RequestID must run first so the other middleware and every handler log
with the same request_id. PrometheusMetrics labels requests with the chi
route pattern rather than the raw path so ids in URLs do not create a
series per folder or file.
*/
package middleware
