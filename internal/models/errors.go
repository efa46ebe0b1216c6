// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import "errors"

// Error kinds shared by every service. Wrap with fmt.Errorf("...: %w", Err...)
// and test with errors.Is; the HTTP layer maps each kind to a status code.
var (
	// ErrNotFound: the referenced folder, file, share or user does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied: a capability or ownership check failed.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConflict: a uniqueness constraint could not be satisfied within the retry budget.
	ErrConflict = errors.New("conflict")

	// ErrExpired: a share or temporary token is past its expiry.
	ErrExpired = errors.New("expired")

	// ErrLockedAccount: login attempted inside the lockout window.
	ErrLockedAccount = errors.New("account locked")

	// ErrIOFailure: a physical file or directory operation failed.
	ErrIOFailure = errors.New("storage i/o failure")

	// ErrInvalidCredentials: unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation: input rejected before reaching the store.
	ErrValidation = errors.New("validation failed")
)
