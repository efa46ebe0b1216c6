// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/squadfile/internal/models"
)

// UnlockResponse carries the temporary token issued by a share unlock.
type UnlockResponse struct {
	Token    string          `json:"token"`
	ItemID   int64           `json:"item_id"`
	ItemType models.ItemType `json:"item_type"`
}

// CreateShare creates a short code for a file or folder.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	var req CreateShareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	itemType, err := models.ParseItemType(req.ItemType)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rec, err := h.shares.CreateShare(r.Context(), actorFrom(r), req.ItemID, itemType, req.Password, req.ExpiresAt)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(rec)
}

// ShareInfo describes a share without unlocking it.
func (h *Handler) ShareInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.shares.Info(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, info)
}

// UnlockShare checks the share password and returns a temporary token.
func (h *Handler) UnlockShare(w http.ResponseWriter, r *http.Request) {
	var req UnlockShareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tok, rec, err := h.shares.Unlock(r.Context(), chi.URLParam(r, "code"), req.Password, clientMeta(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, UnlockResponse{Token: tok, ItemID: rec.ItemID, ItemType: rec.ItemType})
}

// ShareDownload streams the file behind a file share.
func (h *Handler) ShareDownload(w http.ResponseWriter, r *http.Request) {
	fileID, err := h.shares.AuthorizeDownload(r.Context(), chi.URLParam(r, "code"), r.URL.Query().Get("token"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	dl, err := h.files.OpenShared(r.Context(), downloadClient(r), fileID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serveFile(w, r, dl)
}
