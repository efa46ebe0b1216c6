// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/models"
	"github.com/tomtom215/squadfile/internal/users"
)

// ListUsers returns every account.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context(), actorFrom(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// GetUser returns one account.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	u, err := h.users.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// CreateUser creates an account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role := models.RoleNormal
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		role = parsed
	}
	u, err := h.users.Create(r.Context(), actorFrom(r), users.CreateInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Department:  req.Department,
		Role:        role,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(u)
}

// UpdateUser changes admin-managed account fields.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := users.UpdateInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Department:  req.Department,
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		in.Role = &role
	}
	if req.Status != nil {
		status, err := models.ParseUserStatus(*req.Status)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		in.Status = &status
	}
	u, err := h.users.Update(r.Context(), actorFrom(r), id, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// DeleteUser soft-deletes an account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), actorFrom(r), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// ResetPassword sets a new password for an account.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ResetPassword(r.Context(), actorFrom(r), id, req.Password); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// GetSettings returns the system settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, s)
}

// UpdateSettings replaces the system settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var next models.SystemSettings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&next); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body: " + err.Error())
		return
	}
	s, err := h.settings.Update(r.Context(), actorFrom(r), next)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, s)
}

// AdminStats returns the dashboard aggregates.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.AdminStats(r.Context(), actorFrom(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, s)
}

// ListShares pages through active shares, optionally filtered by item name
// or creator.
func (h *Handler) ListShares(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pagination(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	res, err := h.shares.ListShares(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), page, pageSize)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}

// DeleteShares soft-deletes shares by id.
func (h *Handler) DeleteShares(w http.ResponseWriter, r *http.Request) {
	var req DeleteSharesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.shares.DeleteShares(r.Context(), actorFrom(r), req.IDs)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]int64{"deleted": n})
}

// LoginLogs pages through login attempts.
func (h *Handler) LoginLogs(w http.ResponseWriter, r *http.Request) {
	h.auditPage(w, r, audit.LoginEventTypes)
}

// DownloadLogs pages through file downloads.
func (h *Handler) DownloadLogs(w http.ResponseWriter, r *http.Request) {
	h.auditPage(w, r, audit.DownloadEventTypes)
}

// AuditEvent returns one audit event by id.
func (h *Handler) AuditEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.audit.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, ev)
}

func (h *Handler) auditPage(w http.ResponseWriter, r *http.Request, types []audit.EventType) {
	page, pageSize, err := pagination(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	filter, err := auditFilter(r, types)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	list, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if list == nil {
		list = []audit.Event{}
	}
	WriteSuccess(w, r, models.NewPage(list, int(total), page, pageSize))
}

// auditFilter reads the optional search, user_id, ip, start and end
// parameters. Times are RFC 3339.
func auditFilter(r *http.Request, types []audit.EventType) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Types:      types,
		SearchText: strings.TrimSpace(q.Get("search")),
		SourceIP:   strings.TrimSpace(q.Get("ip")),
	}
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return filter, fmt.Errorf("%w: invalid user_id %q", models.ErrValidation, raw)
		}
		filter.ActorID = strconv.FormatInt(id, 10)
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start", &filter.StartTime}, {"end", &filter.EndTime}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, p.name, raw)
		}
		*p.dst = &t
	}
	return filter, nil
}
