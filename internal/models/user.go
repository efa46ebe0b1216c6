// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import "time"

// User is an account record. Users are soft-deleted only, because folders,
// files, grants and shares keep referencing them.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Department     string     `json:"department"`
	Role           Role       `json:"role"`
	Status         UserStatus `json:"status"`
	Language       string     `json:"language,omitempty"`
	IsFirstLogin   bool       `json:"is_first_login"`
	LoginFailCount int        `json:"-"`
	LockTime       *time.Time `json:"-"`
	LastLoginTime  *time.Time `json:"last_login_time,omitempty"`
	LastLoginIP    string     `json:"last_login_ip,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"-"`
}

// IsDeleted reports whether the user carries a tombstone.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Actor is the resolved identity performing an operation. It is passed
// explicitly to every service method; nothing reads it from ambient state.
type Actor struct {
	UserID   int64
	Username string
	Role     Role
}

// Anonymous is the actor used for unauthenticated share and token access.
var Anonymous = Actor{}

// IsAnonymous reports whether no user is bound to the actor.
func (a Actor) IsAnonymous() bool {
	return a.UserID == 0
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// ActorFromUser builds an Actor from a loaded user record.
func ActorFromUser(u *User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}
