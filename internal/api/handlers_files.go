// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/files"
	"github.com/tomtom215/squadfile/internal/models"
)

// PrepareUpload registers a pending file and returns its record.
func (h *Handler) PrepareUpload(w http.ResponseWriter, r *http.Request) {
	var req PrepareUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.files.PrepareUpload(r.Context(), actorFrom(r), files.PrepareInput{
		FolderID:     req.FolderID,
		OriginalName: req.OriginalName,
		Size:         req.Size,
		Extension:    req.Extension,
		Description:  req.Description,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(rec)
}

// UploadContent receives the whole body of a prepared file.
func (h *Handler) UploadContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rec, err := h.files.UploadContent(r.Context(), actorFrom(r), id, r.Body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, rec)
}

// UploadChunk stages one chunk; the final chunk completes the upload.
// The chunk position comes from the index and total query parameters.
func (h *Handler) UploadChunk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	index, err := queryInt64(r, "index", 0)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	total, err := queryInt64(r, "total", 0)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if total < 1 || index >= total {
		WriteError(w, r, fmt.Errorf("%w: chunk %d of %d", models.ErrValidation, index, total))
		return
	}
	res, err := h.files.UploadChunk(r.Context(), actorFrom(r), id, int(index), int(total), r.Body)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}

// DownloadURL returns a short lived download link for a readable file.
func (h *Handler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	url, err := h.files.GenerateDownloadURL(r.Context(), actorFrom(r), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]string{"url": url})
}

// Download streams a file. A token query parameter authorises the
// download on its own; otherwise the session must carry Read on the folder.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	client := downloadClient(r)
	var dl *files.Download
	if tok := r.URL.Query().Get("token"); tok != "" {
		dl, err = h.files.OpenWithToken(r.Context(), client, id, tok)
	} else {
		if client.Actor.IsAnonymous() {
			WriteError(w, r, auth.ErrUnauthenticated)
			return
		}
		dl, err = h.files.OpenForActor(r.Context(), client, id)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serveFile(w, r, dl)
}

// DeleteFile soft-deletes a file and removes its bytes.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.files.DeleteFile(r.Context(), actorFrom(r), id); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// Search matches folders and files by name and description.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	folderID, err := queryInt64(r, "folderId", 0)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	res, err := h.files.Search(r.Context(), actorFrom(r), r.URL.Query().Get("q"), folderID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}
