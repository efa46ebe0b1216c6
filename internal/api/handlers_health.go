// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

const healthPingTimeout = 2 * time.Second

// Health reports liveness and database connectivity. It answers 503 when
// the database cannot be reached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	status := models.HealthStatus{
		Status:            "healthy",
		Version:           h.version,
		DatabaseConnected: true,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if err := h.db.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: database unreachable")
		status.Status = "degraded"
		status.DatabaseConnected = false
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "database unreachable", status)
		return
	}
	WriteSuccess(w, r, status)
}
