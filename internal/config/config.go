// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package config loads SquadFile configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"time"
)

// Search scopes accepted by files.search_scope.
const (
	// SearchScopeGlobal matches across every non-deleted folder and file once
	// the caller holds Read on the starting folder.
	SearchScopeGlobal = "global"
	// SearchScopeFolder restricts matches to the starting folder and its descendants.
	SearchScopeFolder = "folder"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Audit    AuditConfig    `koanf:"audit"`
	Tokens   TokensConfig   `koanf:"tokens"`
	Security SecurityConfig `koanf:"security"`
	Files    FilesConfig    `koanf:"files"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	// ShareRatePerMinute bounds anonymous short-code lookups per client IP.
	ShareRatePerMinute int `koanf:"share_rate_per_minute"`
}

// DatabaseConfig points at the relational store.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuditConfig selects the audit event sink.
type AuditConfig struct {
	// Store is "duckdb" or "memory".
	Store      string `koanf:"store"`
	Path       string `koanf:"path"`
	BufferSize int    `koanf:"buffer_size"`
}

// TokensConfig configures the temporary download token store.
type TokensConfig struct {
	// Dir is the badger directory; empty runs badger in memory.
	Dir        string        `koanf:"dir"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	// SingleUse invalidates a token after its first successful validation.
	SingleUse bool `koanf:"single_use"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	SessionTimeout   time.Duration `koanf:"session_timeout"`
	LockoutThreshold int           `koanf:"lockout_threshold"`
	LockoutWindow    time.Duration `koanf:"lockout_window"`
	AdminUsername    string        `koanf:"admin_username"`
	AdminPassword    string        `koanf:"admin_password"`
	MinPasswordLen   int           `koanf:"min_password_length"`
}

// FilesConfig holds physical storage and search settings.
type FilesConfig struct {
	StorageRoot   string        `koanf:"storage_root"`
	SearchScope   string        `koanf:"search_scope"`
	OrphanTTL     time.Duration `koanf:"orphan_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the production entry point.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
