// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ErrUnauthenticated is passed to the unauthorized handler when a request
// carries no usable session token.
var ErrUnauthenticated = errors.New("authentication required")

// UserLookup loads the current state of a token's subject.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Middleware resolves session tokens into actors.
type Middleware struct {
	jwtManager   *JWTManager
	users        UserLookup
	unauthorized func(w http.ResponseWriter, r *http.Request, err error)
}

// NewMiddleware creates the authentication middleware. unauthorized writes
// the 401 response; nil falls back to a plain-text error.
func NewMiddleware(jwtManager *JWTManager, users UserLookup, unauthorized func(http.ResponseWriter, *http.Request, error)) *Middleware {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{jwtManager: jwtManager, users: users, unauthorized: unauthorized}
}

// Authenticate rejects requests without a valid session.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.resolve(r)
		if err != nil {
			m.unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// Optional attaches the actor when a valid session is present and lets
// anonymous requests through. A present but invalid token is still
// rejected so clients notice an expired session.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if extractToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.resolve(r)
		if err != nil {
			m.unauthorized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// resolve validates the token and reloads the user so role changes and
// deactivation take effect before the token expires.
func (m *Middleware) resolve(r *http.Request) (models.Actor, error) {
	token := extractToken(r)
	if token == "" {
		return models.Actor{}, ErrUnauthenticated
	}
	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
		return models.Actor{}, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}
	claimed, err := claims.Actor()
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid token: %w", ErrUnauthenticated)
	}

	user, err := m.users.GetUser(r.Context(), claimed.UserID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logging.Ctx(r.Context()).Error().Err(err).Int64("user_id", claimed.UserID).Msg("Failed to load token subject")
		}
		return models.Actor{}, fmt.Errorf("unknown user: %w", ErrUnauthenticated)
	}
	if user.Status == models.StatusInactive {
		return models.Actor{}, fmt.Errorf("account disabled: %w", ErrUnauthenticated)
	}
	return models.ActorFromUser(user), nil
}

// extractToken reads the bearer token from the Authorization header or the
// token cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

func withActor(ctx context.Context, actor models.Actor) context.Context {
	ctx = context.WithValue(ctx, actorContextKey, actor)
	return logging.ContextWithActorID(ctx, actor.UserID)
}

// ContextWithActor stores actor on ctx. Handlers read it back with
// ActorFromContext.
func ContextWithActor(ctx context.Context, actor models.Actor) context.Context {
	return withActor(ctx, actor)
}

// ActorFromContext returns the authenticated actor, or models.Anonymous
// and false.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	if !ok {
		return models.Anonymous, false
	}
	return actor, true
}

// ClientIP returns the request's client address without the port. Proxy
// headers are already folded into RemoteAddr by chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
