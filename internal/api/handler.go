// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/files"
	"github.com/tomtom215/squadfile/internal/folders"
	"github.com/tomtom215/squadfile/internal/models"
	"github.com/tomtom215/squadfile/internal/settings"
	"github.com/tomtom215/squadfile/internal/share"
	"github.com/tomtom215/squadfile/internal/stats"
	"github.com/tomtom215/squadfile/internal/users"
)

// Pinger reports whether the relational store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the handlers delegate to.
type Dependencies struct {
	Users    *users.Service
	Folders  *folders.Manager
	Files    *files.Registry
	Shares   *share.Issuer
	Settings *settings.Service
	Stats    *stats.Service
	Audit    *audit.Logger
	DB       Pinger
	Version  string
}

// Handler holds the HTTP handlers. Handlers decode and validate input,
// call one service operation and write the envelope.
type Handler struct {
	users     *users.Service
	folders   *folders.Manager
	files     *files.Registry
	shares    *share.Issuer
	settings  *settings.Service
	stats     *stats.Service
	audit     *audit.Logger
	db        Pinger
	version   string
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		users:     deps.Users,
		folders:   deps.Folders,
		files:     deps.Files,
		shares:    deps.Shares,
		settings:  deps.Settings,
		stats:     deps.Stats,
		audit:     deps.Audit,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
	}
}

// actorFrom returns the authenticated actor or models.Anonymous.
func actorFrom(r *http.Request) models.Actor {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		return models.Anonymous
	}
	return actor
}

func clientMeta(r *http.Request) auth.ClientMeta {
	return auth.ClientMeta{IP: auth.ClientIP(r), UserAgent: r.UserAgent()}
}

func downloadClient(r *http.Request) files.Client {
	return files.Client{Actor: actorFrom(r), IP: auth.ClientIP(r), UserAgent: r.UserAgent()}
}

// serveFile streams a resolved download as an attachment. Range requests
// are handled by http.ServeContent.
func serveFile(w http.ResponseWriter, r *http.Request, dl *files.Download) {
	f, err := os.Open(dl.Path)
	if err != nil {
		WriteError(w, r, fmt.Errorf("open file %d: %w", dl.File.ID, models.ErrIOFailure))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		WriteError(w, r, fmt.Errorf("stat file %d: %w", dl.File.ID, models.ErrIOFailure))
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, dl.Name, info.ModTime(), f)
}
