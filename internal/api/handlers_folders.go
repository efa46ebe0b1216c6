// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"net/http"

	"github.com/tomtom215/squadfile/internal/folders"
	"github.com/tomtom215/squadfile/internal/models"
)

// ListFolders returns the folders the caller can see.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	list, err := h.folders.ListAccessibleFolders(r.Context(), actorFrom(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// CreateFolder creates a top-level folder or a subfolder.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.folders.CreateFolder(r.Context(), actorFrom(r), folders.CreateInput{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(f)
}

// GetFolder returns one folder.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	f, err := h.folders.GetFolder(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, f)
}

// UpdateFolder changes name, description or visibility.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req UpdateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.folders.UpdateFolder(r.Context(), actorFrom(r), id, models.FolderUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, f)
}

// DeleteFolder soft-deletes a folder and its direct children.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.folders.DeleteFolder(r.Context(), actorFrom(r), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// ChildFolders lists the direct subfolders of a folder.
func (h *Handler) ChildFolders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	list, err := h.folders.GetChildFolders(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// FolderFiles lists the completed files of a folder.
func (h *Handler) FolderFiles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	list, err := h.folders.ListFilesInFolder(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// SharedFolderFiles lists a folder's files for an anonymous visitor who
// unlocked a folder share. Public folders need no token.
func (h *Handler) SharedFolderFiles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	list, err := h.folders.ListFilesInFolderForShare(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// FolderPermissions lists the active grants on a folder.
func (h *Handler) FolderPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	list, err := h.folders.ListFolderPermissions(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, list)
}

// GrantPermission upserts one grant.
func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.folders.GrantPermission(r.Context(), actorFrom(r), req.grant())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, p)
}

// GrantPermissionsBatch upserts several grants atomically.
func (h *Handler) GrantPermissionsBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchGrantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	grants := make([]models.Grant, len(req.Grants))
	for i := range req.Grants {
		grants[i] = req.Grants[i].grant()
	}
	out, err := h.folders.GrantPermissionsBatch(r.Context(), actorFrom(r), grants)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, out)
}

// RevokePermission removes the grant of one user on one folder.
func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	folderID, err := pathID(r, "folderId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	ok, err := h.folders.RevokePermission(r.Context(), actorFrom(r), folderID, userID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]bool{"revoked": ok})
}

// RevokePermissionsBatch removes several grants atomically.
func (h *Handler) RevokePermissionsBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRevokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.folders.RevokePermissionsBatch(r.Context(), actorFrom(r), req.Targets)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]int64{"revoked": n})
}
