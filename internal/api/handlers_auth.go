// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"net/http"

	"github.com/tomtom215/squadfile/internal/users"
)

// Login exchanges credentials for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.users.Login(r.Context(), req.Username, req.Password, clientMeta(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}

// Me returns the caller's own account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Profile(r.Context(), actorFrom(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.users.ChangePassword(r.Context(), actorFrom(r), req.CurrentPassword, req.NewPassword); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// UpdateProfile edits the caller's own profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), actorFrom(r), users.ProfileInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Department:  req.Department,
		Language:    req.Language,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}
