// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Security.LockoutThreshold != 3 {
		t.Errorf("LockoutThreshold = %d, want 3", cfg.Security.LockoutThreshold)
	}
	if cfg.Security.LockoutWindow != 10*time.Minute {
		t.Errorf("LockoutWindow = %v, want 10m", cfg.Security.LockoutWindow)
	}
	if cfg.Tokens.DefaultTTL != 30*time.Second {
		t.Errorf("Tokens.DefaultTTL = %v, want 30s", cfg.Tokens.DefaultTTL)
	}
	if cfg.Tokens.SingleUse {
		t.Error("Tokens.SingleUse should default to false")
	}
	if cfg.Files.SearchScope != SearchScopeFolder {
		t.Errorf("Files.SearchScope = %q, want folder", cfg.Files.SearchScope)
	}
	if cfg.Server.Port != 5080 {
		t.Errorf("Server.Port = %d, want 5080", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SEARCH_SCOPE", "global")
	t.Setenv("TOKEN_SINGLE_USE", "true")
	t.Setenv("LOCKOUT_WINDOW", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Files.SearchScope != SearchScopeGlobal {
		t.Errorf("SearchScope = %q, want global", cfg.Files.SearchScope)
	}
	if !cfg.Tokens.SingleUse {
		t.Error("SingleUse should be true")
	}
	if cfg.Security.LockoutWindow != 15*time.Minute {
		t.Errorf("LockoutWindow = %v, want 15m", cfg.Security.LockoutWindow)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadWithKoanf_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
security:
  jwt_secret: "` + testSecret + `"
files:
  storage_root: /srv/files
  orphan_ttl: 2h
audit:
  store: memory
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Files.StorageRoot != "/srv/files" {
		t.Errorf("StorageRoot = %q", cfg.Files.StorageRoot)
	}
	if cfg.Files.OrphanTTL != 2*time.Hour {
		t.Errorf("OrphanTTL = %v, want 2h", cfg.Files.OrphanTTL)
	}
	if cfg.Audit.Store != "memory" {
		t.Errorf("Audit.Store = %q, want memory", cfg.Audit.Store)
	}
	// Defaults survive for keys the file does not mention.
	if cfg.Security.LockoutThreshold != 3 {
		t.Errorf("LockoutThreshold = %d, want 3", cfg.Security.LockoutThreshold)
	}
}

func TestLoadWithKoanf_RejectsMissingSecret(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("JWT_SECRET", "short")

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for short JWT secret")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":    "server.port",
		"SQLITE_PATH":  "database.path",
		"SEARCH_SCOPE": "files.search_scope",
		"PATH":         "",
		"HOME":         "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
