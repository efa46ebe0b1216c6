// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"Admin", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{"Normal", RoleNormal, false},
		{"user", RoleNormal, false},
		{"ADMIN ", 0, true},
		{"Adm1n", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseRole(%q) error = %v, want ErrValidation", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseRole(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestRole_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleAdmin})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"Admin"`) {
		t.Errorf("expected Admin in %s", data)
	}

	var out struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"superuser"}`), &out); err == nil {
		t.Error("expected error for unknown role")
	}
	if _, err := json.Marshal(struct{ R Role }{Role(9)}); err == nil {
		t.Error("expected marshal error for undefined role")
	}
}

func TestCapabilities_Allows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		caps Capabilities
		cap  Capability
		want bool
	}{
		{"read grant reads", Capabilities{CanRead: true}, CapRead, true},
		{"upload implies read", Capabilities{CanUpload: true}, CapRead, true},
		{"read does not imply upload", Capabilities{CanRead: true}, CapUpload, false},
		{"delete needs own flag", Capabilities{CanRead: true, CanUpload: true}, CapDelete, false},
		{"delete flag", Capabilities{CanDelete: true}, CapDelete, true},
		{"delete does not imply read", Capabilities{CanDelete: true}, CapRead, false},
		{"create subfolder flag", Capabilities{CanCreateSubfolder: true}, CapCreateSubfolder, true},
		{"empty grant", Capabilities{}, CapRead, false},
		{"unknown capability", Capabilities{CanRead: true, CanUpload: true, CanDelete: true, CanCreateSubfolder: true}, Capability(0), false},
	}

	for _, tt := range tests {
		if got := tt.caps.Allows(tt.cap); got != tt.want {
			t.Errorf("%s: Allows(%v) = %v, want %v", tt.name, tt.cap, got, tt.want)
		}
	}
}

func TestShareRecord_IsExpired_FullDatetime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	earlierToday := now.Add(-time.Hour)
	later := now.Add(time.Minute)

	if (&ShareRecord{}).IsExpired(now) {
		t.Error("share without expiry must never expire")
	}
	if !(&ShareRecord{ExpiresAt: &earlierToday}).IsExpired(now) {
		t.Error("share that expired an hour ago on the same day must be expired")
	}
	if (&ShareRecord{ExpiresAt: &later}).IsExpired(now) {
		t.Error("share expiring in the future must not be expired")
	}
}

func TestTemporaryToken_IsExpired(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok := TemporaryToken{CreatedAt: created, ExpiresAt: created.Add(30 * time.Second)}

	if tok.IsExpired(created.Add(29 * time.Second)) {
		t.Error("token expired early")
	}
	if !tok.IsExpired(created.Add(30 * time.Second)) {
		t.Error("token should be expired at its expiry instant")
	}
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	p := NewPage[int](nil, 21, 2, 10)
	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if p.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestActor(t *testing.T) {
	t.Parallel()

	if !Anonymous.IsAnonymous() || Anonymous.IsAdmin() {
		t.Error("Anonymous actor must be anonymous and not admin")
	}
	u := &User{ID: 7, Username: "alice", Role: RoleAdmin}
	a := ActorFromUser(u)
	if a.IsAnonymous() || !a.IsAdmin() {
		t.Errorf("unexpected actor %+v", a)
	}
	if u.Name() != "alice" {
		t.Errorf("Name() = %q, want fallback to username", u.Name())
	}
}
