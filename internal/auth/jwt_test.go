// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	m := newTestJWT(t)
	tok, exp, err := m.GenerateToken(&models.User{ID: 12, Username: "bob", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 59*time.Minute {
		t.Errorf("expiry %v too early", exp)
	}
	claims, err := m.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	actor, err := claims.Actor()
	if err != nil {
		t.Fatal(err)
	}
	if actor.UserID != 12 || actor.Username != "bob" || !actor.IsAdmin() {
		t.Errorf("actor = %+v", actor)
	}
}

func TestJWT_Expired(t *testing.T) {
	m := newTestJWT(t)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := m.GenerateToken(&models.User{ID: 1, Username: "a", Role: models.RoleNormal})
	if err != nil {
		t.Fatal(err)
	}
	m.now = time.Now
	if _, err := m.ValidateToken(tok); err == nil {
		t.Error("expired token accepted")
	}
}

func TestJWT_RejectsOtherAlgorithmsAndSecrets(t *testing.T) {
	m := newTestJWT(t)
	claims := &Claims{Username: "x", Role: "Admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(none); err == nil {
		t.Error("alg=none accepted")
	}

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(other); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestClaims_Actor(t *testing.T) {
	tests := []struct {
		name    string
		claims  Claims
		wantErr bool
	}{
		{"valid", Claims{Role: "Normal", RegisteredClaims: jwt.RegisteredClaims{Subject: "3"}}, false},
		{"bad subject", Claims{Role: "Normal", RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}, true},
		{"zero subject", Claims{Role: "Normal", RegisteredClaims: jwt.RegisteredClaims{Subject: "0"}}, true},
		{"unknown role", Claims{Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{Subject: "3"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Actor()
			if (err != nil) != tt.wantErr {
				t.Errorf("Actor() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
