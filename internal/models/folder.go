// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import "time"

// RootFolderID is the sentinel parent of top-level folders. It is never a
// real folder row and never carries grants.
const RootFolderID int64 = 0

// Folder is a node in the folder tree. ParentID is RootFolderID for
// top-level folders.
type Folder struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	ParentID    int64      `json:"parent_id"`
	CreatorID   int64      `json:"creator_id"`
	Description string     `json:"description"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// IsDeleted reports whether the folder is soft-deleted.
func (f *Folder) IsDeleted() bool {
	return f.DeletedAt != nil
}

// IsRootLevel reports whether the folder sits directly under the root sentinel.
func (f *Folder) IsRootLevel() bool {
	return f.ParentID == RootFolderID
}

// FolderSummary is a folder annotated for listing.
type FolderSummary struct {
	Folder
	CreatorName string `json:"creator_name"`
	FileCount   int    `json:"file_count"`
}

// FolderUpdate carries the mutable folder fields; nil means unchanged.
type FolderUpdate struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Capabilities is the set of rights in a grant.
type Capabilities struct {
	CanRead            bool `json:"can_read"`
	CanUpload          bool `json:"can_upload"`
	CanDelete          bool `json:"can_delete"`
	CanCreateSubfolder bool `json:"can_create_subfolder"`
}

// Allows evaluates a capability against the grant. Upload implies read.
func (c Capabilities) Allows(cp Capability) bool {
	switch cp {
	case CapRead:
		return c.CanRead || c.CanUpload
	case CapUpload:
		return c.CanUpload
	case CapDelete:
		return c.CanDelete
	case CapCreateSubfolder:
		return c.CanCreateSubfolder
	default:
		return false
	}
}

// FolderPermission is the single active grant for a (folder, user) pair.
type FolderPermission struct {
	ID       int64  `json:"id"`
	FolderID int64  `json:"folder_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Capabilities
	GrantedBy int64      `json:"granted_by"`
	GrantedAt time.Time  `json:"granted_at"`
	DeletedAt *time.Time `json:"-"`
}

// Grant is a request to upsert a FolderPermission.
type Grant struct {
	FolderID int64
	UserID   int64
	Capabilities
}

// GrantTarget identifies the (folder, user) pair of a grant.
type GrantTarget struct {
	FolderID int64 `json:"folder_id" validate:"required,gt=0"`
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
}
