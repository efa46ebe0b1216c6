// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package files

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/models"
)

// DownloadTokenTTL is the lifetime of a token minted by GenerateDownloadURL.
const DownloadTokenTTL = 30 * time.Second

// Download vias, recorded on the download log.
const (
	ViaSession = "session"
	ViaToken   = "token"
	ViaShare   = "share"
)

// Download is a resolved, authorised download.
type Download struct {
	Path string
	Name string
	File *models.FileRecord
}

// Client identifies the requester for the download log.
type Client struct {
	Actor     models.Actor
	IP        string
	UserAgent string
}

// GenerateDownloadURL checks Read access and returns a URL carrying a short
// lived token for the file.
func (r *Registry) GenerateDownloadURL(ctx context.Context, actor models.Actor, fileID int64) (string, error) {
	if _, _, err := r.GetPathAndName(ctx, actor, fileID); err != nil {
		return "", err
	}
	tok, err := r.tokens.Create(ctx, models.ItemFile, fileID, actor.UserID, DownloadTokenTTL)
	if err != nil {
		return "", err
	}
	return "/api/v1/files/" + strconv.FormatInt(fileID, 10) + "/download?token=" + url.QueryEscape(tok), nil
}

// OpenForActor resolves a download for an authenticated actor.
func (r *Registry) OpenForActor(ctx context.Context, client Client, fileID int64) (*Download, error) {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	path, name, err := r.GetPathAndName(ctx, client.Actor, fileID)
	if err != nil {
		return nil, err
	}
	r.logDownload(ctx, client, rec, ViaSession)
	return &Download{Path: path, Name: name, File: rec}, nil
}

// OpenWithToken resolves a download authorised by a temporary token bound to
// the file itself or to the folder holding it.
func (r *Registry) OpenWithToken(ctx context.Context, client Client, fileID int64, tok string) (*Download, error) {
	t, err := r.tokens.Validate(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("download file %d: %w", fileID, models.ErrPermissionDenied)
	}
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !t.BoundTo(models.ItemFile, rec.ID) && !t.BoundTo(models.ItemFolder, rec.FolderID) {
		return nil, fmt.Errorf("token bound to another resource: %w", models.ErrPermissionDenied)
	}
	path, name, err := r.GetPathAndNameUnchecked(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if client.Actor.IsAnonymous() && t.UserID != 0 {
		client.Actor = models.Actor{UserID: t.UserID}
	}
	r.logDownload(ctx, client, rec, ViaToken)
	return &Download{Path: path, Name: name, File: rec}, nil
}

// OpenShared resolves a download whose share was already authorised.
func (r *Registry) OpenShared(ctx context.Context, client Client, fileID int64) (*Download, error) {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	path, name, err := r.GetPathAndNameUnchecked(ctx, fileID)
	if err != nil {
		return nil, err
	}
	r.logDownload(ctx, client, rec, ViaShare)
	return &Download{Path: path, Name: name, File: rec}, nil
}

func (r *Registry) logDownload(ctx context.Context, client Client, rec *models.FileRecord, via string) {
	r.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeFileDownload,
		Success:    true,
		ActorID:    client.Actor.UserID,
		ActorName:  client.Actor.Username,
		TargetID:   rec.ID,
		TargetType: "file",
		TargetName: rec.OriginalName,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
		Details:    map[string]interface{}{"size": rec.Size, "via": via, "folder_id": rec.FolderID},
	})
}
