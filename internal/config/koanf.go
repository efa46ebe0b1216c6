// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/squadfile/config.yaml",
	"/etc/squadfile/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               5080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       5 * time.Minute, // chunk uploads
			ShutdownTimeout:    15 * time.Second,
			CORSOrigins:        []string{"*"},
			RateLimitReqs:      300,
			RateLimitWindow:    time.Minute,
			ShareRatePerMinute: 30,
		},
		Database: DatabaseConfig{
			Path: "/data/squadfile.db",
		},
		Audit: AuditConfig{
			Store:      "duckdb",
			Path:       "/data/audit.duckdb",
			BufferSize: 1024,
		},
		Tokens: TokensConfig{
			Dir:        "",
			DefaultTTL: 30 * time.Second,
			SingleUse:  false,
		},
		Security: SecurityConfig{
			SessionTimeout:   24 * time.Hour,
			LockoutThreshold: 3,
			LockoutWindow:    10 * time.Minute,
			AdminUsername:    "admin",
			MinPasswordLen:   8,
		},
		Files: FilesConfig{
			StorageRoot:   "/data/uploads",
			SearchScope:   SearchScopeFolder,
			OrphanTTL:     24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers struct defaults, the config file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values into slices. Values
// that arrived as YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to config keys. Unmapped
// variables are ignored so the process environment cannot pollute config.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"shutdown_timeout":      "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"share_rate_per_minute": "server.share_rate_per_minute",

	"sqlite_path": "database.path",

	"audit_store":       "audit.store",
	"audit_path":        "audit.path",
	"audit_buffer_size": "audit.buffer_size",

	"token_store_dir":   "tokens.dir",
	"token_default_ttl": "tokens.default_ttl",
	"token_single_use":  "tokens.single_use",

	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"lockout_threshold":   "security.lockout_threshold",
	"lockout_window":      "security.lockout_window",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"min_password_length": "security.min_password_length",

	"storage_root":          "files.storage_root",
	"search_scope":          "files.search_scope",
	"orphan_ttl":            "files.orphan_ttl",
	"orphan_sweep_interval": "files.sweep_interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
