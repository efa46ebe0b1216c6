// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package logging

import (
	"github.com/rs/zerolog"
)

// SecurityLogger writes authentication and share-access events with
// credentials masked. Token values and short codes never reach the log in full.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger creates a security logger on a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogLoginSuccess logs a successful password check.
func (l *SecurityLogger) LogLoginSuccess(userID int64, username, ip string) {
	l.logger.Info().
		Str("event", "login_success").
		Int64("user_id", userID).
		Str("username", username).
		Str("ip", ip).
		Msg("Login succeeded")
}

// LogLoginFailure logs a rejected login with its reason.
func (l *SecurityLogger) LogLoginFailure(username, ip, reason string) {
	l.logger.Warn().
		Str("event", "login_failed").
		Str("username", username).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Login failed")
}

// LogAccountLocked logs the transition of an account into the locked state.
func (l *SecurityLogger) LogAccountLocked(userID int64, username string, failures int) {
	l.logger.Warn().
		Str("event", "account_locked").
		Int64("user_id", userID).
		Str("username", username).
		Int("failures", failures).
		Msg("Account locked after repeated failures")
}

// LogShareAccess logs an anonymous short-code access attempt.
func (l *SecurityLogger) LogShareAccess(shortCode, ip, outcome string) {
	l.logger.Info().
		Str("event", "share_access").
		Str("short_code", SanitizeToken(shortCode)).
		Str("ip", ip).
		Str("outcome", outcome).
		Msg("Share accessed")
}

// SanitizeToken masks a secret, keeping the first and last 2 characters.
//
//	SanitizeToken("a1b2c3d4e5f6") // "a1...f6"
func SanitizeToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 6:
		return "***"
	default:
		return token[:2] + "..." + token[len(token)-2:]
	}
}
