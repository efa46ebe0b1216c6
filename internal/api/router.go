// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/authz"
	"github.com/tomtom215/squadfile/internal/middleware"
)

// slowRequestThreshold is where the access log escalates to warn.
const slowRequestThreshold = 2 * time.Second

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	shareLimiter  *ShareLimiter
}

// NewRouter creates a router. A nil chiMiddleware uses the defaults.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware, limiter *ShareLimiter) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	if limiter == nil {
		limiter = NewShareLimiter(0)
	}
	return &Router{
		handler:       handler,
		auth:          authn,
		authz:         authzMW,
		chiMiddleware: chiMW,
		shareLimiter:  limiter,
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", h.Health)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/auth/login", h.Login)

		// Anonymous share access, throttled per IP so codes stay
		// non-enumerable.
		r.Group(func(r chi.Router) {
			r.Use(router.shareLimiter.Middleware)
			r.Get("/s/{code}", h.ShareInfo)
			r.Post("/s/{code}/validate", h.UnlockShare)
			r.Get("/s/{code}/download", h.ShareDownload)
			r.Get("/folders/{id}/files/share", h.SharedFolderFiles)
		})

		// Token downloads work without a session.
		r.With(router.chiMiddleware.RateLimit(), router.auth.Optional).Get("/files/{id}/download", h.Download)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.auth.Authenticate)

			r.Group(func(r chi.Router) {
				r.Use(router.authz.RequireMethod("self"))
				r.Get("/auth/me", h.Me)
				r.Put("/auth/password", h.ChangePassword)
				r.Put("/auth/profile", h.UpdateProfile)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.authz.RequireMethod("folders"))
				r.Get("/folders", h.ListFolders)
				r.Post("/folders", h.CreateFolder)
				r.Get("/folders/{id}", h.GetFolder)
				r.Put("/folders/{id}", h.UpdateFolder)
				r.Delete("/folders/{id}", h.DeleteFolder)
				r.Get("/folders/{id}/children", h.ChildFolders)
				r.Get("/folders/{id}/files", h.FolderFiles)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.authz.RequireMethod("permissions"))
				r.Get("/folders/{id}/permissions", h.FolderPermissions)
				r.Post("/permissions", h.GrantPermission)
				r.Post("/permissions/batch", h.GrantPermissionsBatch)
				r.Delete("/permissions/batch", h.RevokePermissionsBatch)
				r.Delete("/permissions/folders/{folderId}/users/{userId}", h.RevokePermission)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.authz.RequireMethod("files"))
				r.Post("/files/prepare", h.PrepareUpload)
				r.Put("/files/{id}/content", h.UploadContent)
				r.Post("/files/{id}/chunks", h.UploadChunk)
				r.Get("/files/{id}/download-url", h.DownloadURL)
				r.Delete("/files/{id}", h.DeleteFile)
			})

			r.With(router.authz.Require("search", authz.ActionRead)).Get("/search", h.Search)
			r.With(router.authz.Require("shares", authz.ActionWrite)).Post("/shares", h.CreateShare)

			r.Route("/admin", func(r chi.Router) {
				r.Route("/users", func(r chi.Router) {
					r.Use(router.authz.RequireMethod("admin/users"))
					r.Get("/", h.ListUsers)
					r.Post("/", h.CreateUser)
					r.Get("/{id}", h.GetUser)
					r.Put("/{id}", h.UpdateUser)
					r.Delete("/{id}", h.DeleteUser)
					r.Put("/{id}/password", h.ResetPassword)
				})
				r.With(router.authz.RequireMethod("admin/settings")).Get("/settings", h.GetSettings)
				r.With(router.authz.RequireMethod("admin/settings")).Put("/settings", h.UpdateSettings)
				r.With(router.authz.RequireMethod("admin/stats")).Get("/stats", h.AdminStats)
				r.With(router.authz.RequireMethod("admin/shares")).Get("/shares", h.ListShares)
				r.With(router.authz.RequireMethod("admin/shares")).Delete("/shares", h.DeleteShares)
				r.With(router.authz.RequireMethod("admin/logs")).Get("/logs/login", h.LoginLogs)
				r.With(router.authz.RequireMethod("admin/logs")).Get("/logs/download", h.DownloadLogs)
				r.With(router.authz.RequireMethod("admin/logs")).Get("/logs/{id}", h.AuditEvent)
			})
		})
	})

	return r
}
