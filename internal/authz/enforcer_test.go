// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package authz

import (
	"os"
	"path/filepath"
	"testing"
)

func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return enforcer
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := setupEnforcer(t)

	tests := []struct {
		subject string
		object  string
		action  string
		want    bool
	}{
		{"user", "folders", ActionRead, true},
		{"user", "folders", ActionDelete, true},
		{"user", "files", ActionWrite, true},
		{"user", "shares", ActionWrite, true},
		{"user", "shares", ActionRead, false},
		{"user", "search", ActionRead, true},
		{"user", "self", ActionWrite, true},
		{"user", "admin/users", ActionRead, false},
		{"user", "admin/settings", ActionWrite, false},
		{"admin", "admin/users", ActionWrite, true},
		{"admin", "admin/stats", ActionRead, true},
		{"admin", "folders", ActionRead, true},
		{"admin", "shares", ActionWrite, true},
		{"anonymous", "folders", ActionRead, false},
		{"", "self", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.subject+" "+tt.action+" "+tt.object, func(t *testing.T) {
			got, err := e.Enforce(tt.subject, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.subject, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_AdminInheritsUser(t *testing.T) {
	e := setupEnforcer(t)

	roles, err := e.GetRolesForUser("admin")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0] != "user" {
		t.Errorf("GetRolesForUser(admin) = %v, want [user]", roles)
	}
	if len(e.GetPolicy()) == 0 {
		t.Error("embedded policy is empty")
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, user, folders, read\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Enforce("user", "folders", ActionRead); !ok {
		t.Error("file policy not loaded")
	}
	if ok, _ := e.Enforce("user", "folders", ActionWrite); ok {
		t.Error("embedded policy leaked into file policy")
	}
}

func TestEnforcer_MissingFilesFallBack(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{
		ModelPath:  filepath.Join(t.TempDir(), "missing.conf"),
		PolicyPath: filepath.Join(t.TempDir(), "missing.csv"),
	})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Enforce("admin", "admin/users", ActionRead); !ok {
		t.Error("embedded policy not used when files are missing")
	}
}
