// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy applies to user passwords set by admins or by users
// themselves. Share passwords are free-form.
type PasswordPolicy struct {
	MinLength int

	// RequireLetter and RequireDigit ask for at least one of each.
	RequireLetter bool
	RequireDigit  bool

	// ForbidUsername rejects passwords that contain the username.
	ForbidUsername bool
}

// ErrWeakPassword wraps every policy violation.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy builds the policy from security settings.
func (s SecurityConfig) PasswordPolicy() PasswordPolicy {
	minLen := s.MinPasswordLen
	if minLen < 1 {
		minLen = 8
	}
	return PasswordPolicy{
		MinLength:      minLen,
		RequireLetter:  true,
		RequireDigit:   true,
		ForbidUsername: true,
	}
}

// Check returns nil when password satisfies the policy for username.
func (p PasswordPolicy) Check(password, username string) error {
	if len([]rune(password)) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, p.MinLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if p.RequireLetter && !hasLetter {
		return fmt.Errorf("%w: must contain a letter", ErrWeakPassword)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}
	if p.ForbidUsername && username != "" &&
		strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return fmt.Errorf("%w: must not contain the username", ErrWeakPassword)
	}
	return nil
}
