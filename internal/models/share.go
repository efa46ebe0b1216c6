// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import "time"

// ShareRecord maps a short code to a file or folder.
type ShareRecord struct {
	ID           int64      `json:"id"`
	ItemID       int64      `json:"item_id"`
	ItemType     ItemType   `json:"item_type"`
	ShortCode    string     `json:"short_code"`
	PasswordHash string     `json:"-"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	DeletedAt    *time.Time `json:"-"`
}

// HasPassword reports whether the share is password protected.
func (s *ShareRecord) HasPassword() bool {
	return s.PasswordHash != ""
}

// IsExpired compares the full expiry timestamp against now.
func (s *ShareRecord) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// ShareListing is a share row joined with its item and creator names.
type ShareListing struct {
	ShareRecord
	ItemName    string `json:"item_name"`
	CreatorName string `json:"creator_name"`
}

// TemporaryToken is a short-lived download credential kept in the
// expiring token store. It is bound to exactly one file or folder: file and
// folder ids are separate id spaces, so ResourceID alone identifies nothing.
// UserID 0 means the token was issued anonymously.
type TemporaryToken struct {
	Token        string    `json:"token"`
	ResourceType ItemType  `json:"resource_type"`
	ResourceID   int64     `json:"resource_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Used         bool      `json:"used"`
}

// BoundTo reports whether the token was issued for the given item.
func (t *TemporaryToken) BoundTo(itemType ItemType, id int64) bool {
	return t.ResourceType == itemType && t.ResourceID == id
}

// IsExpired reports whether the token is past its expiry.
func (t *TemporaryToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
