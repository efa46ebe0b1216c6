// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/squadfile/internal/logging"
)

// AccessLog logs one line per request. Requests slower than slow, and
// server errors, are logged at warn level.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			log := logging.Ctx(r.Context())
			ev := log.Debug()
			switch {
			case sw.status >= http.StatusInternalServerError:
				ev = log.Warn()
			case slow > 0 && elapsed > slow:
				ev = log.Warn().Bool("slow", true)
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", sw.status).
				Int64("bytes", sw.bytes).
				Dur("duration", elapsed).
				Msg("HTTP request")
		})
	}
}
