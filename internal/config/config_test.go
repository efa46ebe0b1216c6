// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package config

import (
	"errors"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with secret", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown search scope", func(c *Config) { c.Files.SearchScope = "tree" }, true},
		{"global search scope", func(c *Config) { c.Files.SearchScope = SearchScopeGlobal }, false},
		{"unknown audit store", func(c *Config) { c.Audit.Store = "postgres" }, true},
		{"duckdb without path", func(c *Config) { c.Audit.Path = "" }, true},
		{"memory audit", func(c *Config) { c.Audit.Store = "memory"; c.Audit.Path = "" }, false},
		{"zero lockout window", func(c *Config) { c.Security.LockoutWindow = 0 }, true},
		{"zero lockout threshold", func(c *Config) { c.Security.LockoutThreshold = 0 }, true},
		{"zero token ttl", func(c *Config) { c.Tokens.DefaultTTL = 0 }, true},
		{"empty storage root", func(c *Config) { c.Files.StorageRoot = "" }, true},
		{"negative share rate", func(c *Config) { c.Server.ShareRatePerMinute = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPasswordPolicy_Check(t *testing.T) {
	p := SecurityConfig{MinPasswordLen: 8}.PasswordPolicy()

	tests := []struct {
		password string
		username string
		ok       bool
	}{
		{"s3cretpass", "bob", true},
		{"short1", "bob", false},
		{"onlyletters", "bob", false},
		{"1234567890", "bob", false},
		{"xxBob2024xx", "bob", false},
	}

	for _, tt := range tests {
		err := p.Check(tt.password, tt.username)
		if tt.ok && err != nil {
			t.Errorf("Check(%q) unexpected error: %v", tt.password, err)
		}
		if !tt.ok && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Check(%q) = %v, want ErrWeakPassword", tt.password, err)
		}
	}
}
