// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package authz

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

// DenyFunc writes the response for a refused request. err wraps
// auth.ErrUnauthenticated, models.ErrPermissionDenied or an enforcement failure.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware enforces route-level policy for the authenticated actor.
type Middleware struct {
	enforcer *Enforcer
	deny     DenyFunc
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer, deny DenyFunc) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
	return &Middleware{enforcer: enforcer, deny: deny}
}

// Require returns middleware admitting actors whose role may perform action
// on object. It must run after auth.Middleware.Authenticate.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok || actor.IsAnonymous() {
				m.deny(w, r, auth.ErrUnauthenticated)
				return
			}

			subject := actor.Role.AuthzRole()
			allowed, err := m.enforcer.Enforce(subject, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Str("object", object).Msg("Authorization error")
				m.deny(w, r, err)
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Debug().
					Int64("user_id", actor.UserID).
					Str("role", subject).
					Str("object", object).
					Str("action", action).
					Msg("Route access denied")
				m.deny(w, r, fmt.Errorf("%s %s: %w", action, object, models.ErrPermissionDenied))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethod is Require with the action derived from the HTTP method.
func (m *Middleware) RequireMethod(object string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.Require(object, methodToAction(r.Method))(next).ServeHTTP(w, r)
		})
	}
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
