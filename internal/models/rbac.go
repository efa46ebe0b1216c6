// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

/*
rbac.go - Roles, account status, and folder capabilities

Role is a closed enum. Every value that crosses a trust boundary (database
row, JWT claim, request body) goes through ParseRole, so a typo becomes an
error instead of silently producing a non-admin.

Capability names the four independent rights a FolderPermission row carries.
*/

package models

import (
	"fmt"
)

// Role is the account role.
type Role uint8

const (
	// RoleNormal is a regular team member.
	RoleNormal Role = iota + 1
	// RoleAdmin bypasses folder permission checks.
	RoleAdmin
)

// String returns the persisted role name.
func (r Role) String() string {
	switch r {
	case RoleNormal:
		return "Normal"
	case RoleAdmin:
		return "Admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleNormal || r == RoleAdmin
}

// IsAdmin reports whether r is RoleAdmin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// AuthzRole is the casbin subject role for route-level checks.
func (r Role) AuthzRole() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// ParseRole converts a persisted or user-supplied role name.
func ParseRole(s string) (Role, error) {
	switch s {
	case "Normal", "normal", "user":
		return RoleNormal, nil
	case "Admin", "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserStatus is the account state driven by admin action and the lockout policy.
type UserStatus uint8

const (
	StatusActive UserStatus = iota + 1
	StatusInactive
	StatusLocked
)

// String returns the persisted status name.
func (s UserStatus) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	case StatusLocked:
		return "Locked"
	default:
		return fmt.Sprintf("UserStatus(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the defined statuses.
func (s UserStatus) Valid() bool {
	return s >= StatusActive && s <= StatusLocked
}

// ParseUserStatus converts a persisted or user-supplied status name.
func ParseUserStatus(s string) (UserStatus, error) {
	switch s {
	case "Active", "active":
		return StatusActive, nil
	case "Inactive", "inactive":
		return StatusInactive, nil
	case "Locked", "locked":
		return StatusLocked, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s UserStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *UserStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseUserStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Capability is an atomic right on a folder.
type Capability uint8

const (
	CapRead Capability = iota + 1
	CapUpload
	CapDelete
	CapCreateSubfolder
)

// String returns the capability name used in logs and metrics labels.
func (c Capability) String() string {
	switch c {
	case CapRead:
		return "read"
	case CapUpload:
		return "upload"
	case CapDelete:
		return "delete"
	case CapCreateSubfolder:
		return "create_subfolder"
	default:
		return fmt.Sprintf("Capability(%d)", uint8(c))
	}
}

// ItemType is the kind of resource a share points at.
type ItemType uint8

const (
	ItemFile ItemType = iota + 1
	ItemFolder
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemFile || t == ItemFolder
}

// String returns the persisted item type name.
func (t ItemType) String() string {
	switch t {
	case ItemFile:
		return "File"
	case ItemFolder:
		return "Folder"
	default:
		return fmt.Sprintf("ItemType(%d)", uint8(t))
	}
}

// ParseItemType converts a persisted or user-supplied item type name.
func ParseItemType(s string) (ItemType, error) {
	switch s {
	case "File", "file":
		return ItemFile, nil
	case "Folder", "folder":
		return ItemFolder, nil
	default:
		return 0, fmt.Errorf("%w: unknown item type %q", ErrValidation, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ItemType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ItemType) UnmarshalText(b []byte) error {
	parsed, err := ParseItemType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
