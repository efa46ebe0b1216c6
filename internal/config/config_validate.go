// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package config

import (
	"errors"
	"fmt"
)

// minJWTSecretLength matches the HS256 key size.
const minJWTSecretLength = 32

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 0 || c.Server.ShareRatePerMinute < 0 {
		return errors.New("rate limits must not be negative")
	}
	if c.Database.Path == "" {
		return errors.New("SQLITE_PATH is required")
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateFiles()
}

func (c *Config) validateAudit() error {
	switch c.Audit.Store {
	case "memory":
	case "duckdb":
		if c.Audit.Path == "" {
			return errors.New("AUDIT_PATH is required when AUDIT_STORE=duckdb")
		}
	default:
		return fmt.Errorf("AUDIT_STORE must be duckdb or memory, got %q", c.Audit.Store)
	}
	if c.Audit.BufferSize < 1 {
		return errors.New("AUDIT_BUFFER_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return errors.New("SESSION_TIMEOUT must be positive")
	}
	if c.Security.LockoutThreshold < 1 {
		return errors.New("LOCKOUT_THRESHOLD must be at least 1")
	}
	if c.Security.LockoutWindow <= 0 {
		return errors.New("LOCKOUT_WINDOW must be positive")
	}
	if c.Tokens.DefaultTTL <= 0 {
		return errors.New("TOKEN_DEFAULT_TTL must be positive")
	}
	return nil
}

func (c *Config) validateFiles() error {
	if c.Files.StorageRoot == "" {
		return errors.New("STORAGE_ROOT is required")
	}
	switch c.Files.SearchScope {
	case SearchScopeGlobal, SearchScopeFolder:
	default:
		return fmt.Errorf("SEARCH_SCOPE must be %q or %q, got %q",
			SearchScopeGlobal, SearchScopeFolder, c.Files.SearchScope)
	}
	if c.Files.OrphanTTL <= 0 || c.Files.SweepInterval <= 0 {
		return errors.New("ORPHAN_TTL and ORPHAN_SWEEP_INTERVAL must be positive")
	}
	return nil
}
