// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/squadfile/internal/models"
)

type stubUsers map[int64]*models.User

func (s stubUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func actorEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if ok {
			w.Header().Set("X-Actor", actor.Username+"/"+actor.Role.String())
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware(t *testing.T) {
	jm := newTestJWT(t)
	users := stubUsers{
		1: {ID: 1, Username: "alice", Role: models.RoleAdmin, Status: models.StatusActive},
		2: {ID: 2, Username: "bob", Role: models.RoleNormal, Status: models.StatusInactive},
	}
	mw := NewMiddleware(jm, users, nil)

	token := func(u *models.User) string {
		tok, _, err := jm.GenerateToken(u)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	// role in the token is stale; the stored role wins
	aliceTok := token(&models.User{ID: 1, Username: "alice", Role: models.RoleNormal})
	bobTok := token(users[2])
	ghostTok := token(&models.User{ID: 9, Username: "ghost", Role: models.RoleNormal})

	tests := []struct {
		name       string
		optional   bool
		header     string
		wantStatus int
		wantActor  string
	}{
		{"required, no token", false, "", http.StatusUnauthorized, ""},
		{"required, valid", false, "Bearer " + aliceTok, http.StatusNoContent, "alice/Admin"},
		{"required, garbage", false, "Bearer nope", http.StatusUnauthorized, ""},
		{"required, wrong scheme", false, "Basic abc", http.StatusUnauthorized, ""},
		{"required, inactive user", false, "Bearer " + bobTok, http.StatusUnauthorized, ""},
		{"required, deleted user", false, "Bearer " + ghostTok, http.StatusUnauthorized, ""},
		{"optional, anonymous", true, "", http.StatusNoContent, ""},
		{"optional, valid", true, "Bearer " + aliceTok, http.StatusNoContent, "alice/Admin"},
		{"optional, invalid", true, "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mw.Authenticate(actorEcho(t))
			if tt.optional {
				h = mw.Optional(actorEcho(t))
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Actor"); got != tt.wantActor {
				t.Errorf("actor = %q, want %q", got, tt.wantActor)
			}
		})
	}
}

func TestMiddleware_Cookie(t *testing.T) {
	jm := newTestJWT(t)
	users := stubUsers{1: {ID: 1, Username: "alice", Role: models.RoleNormal, Status: models.StatusActive}}
	tok, _, _ := jm.GenerateToken(users[1])

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	rec := httptest.NewRecorder()
	NewMiddleware(jm, users, nil).Authenticate(actorEcho(t)).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "203.0.113.7"
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP without port = %q", got)
	}
}
