// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import (
	"fmt"
	"time"
)

// FileState tracks the upload lifecycle: Pending -> Complete -> (soft-deleted).
type FileState uint8

const (
	// FileStatePending: record prepared, bytes not yet written.
	FileStatePending FileState = iota + 1
	// FileStateComplete: bytes written to storage.
	FileStateComplete
)

// String returns the persisted state name.
func (s FileState) String() string {
	switch s {
	case FileStatePending:
		return "Pending"
	case FileStateComplete:
		return "Complete"
	default:
		return fmt.Sprintf("FileState(%d)", uint8(s))
	}
}

// ParseFileState converts a persisted state name.
func ParseFileState(s string) (FileState, error) {
	switch s {
	case "Pending":
		return FileStatePending, nil
	case "Complete":
		return FileStateComplete, nil
	default:
		return 0, fmt.Errorf("%w: unknown file state %q", ErrValidation, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s FileState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FileRecord is a file registered in a folder. StorageName is the on-disk
// name under {storageRoot}/{FolderID}/.
type FileRecord struct {
	ID           int64      `json:"id"`
	OriginalName string     `json:"original_name"`
	StorageName  string     `json:"-"`
	Size         int64      `json:"size"`
	Extension    string     `json:"extension"`
	FolderID     int64      `json:"folder_id"`
	UploaderID   int64      `json:"uploader_id"`
	UploaderName string     `json:"uploader_name,omitempty"`
	Description  string     `json:"description"`
	State        FileState  `json:"state"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	DeletedAt    *time.Time `json:"-"`
}

// IsDeleted reports whether the file is soft-deleted.
func (f *FileRecord) IsDeleted() bool {
	return f.DeletedAt != nil
}

// SearchResult groups folder and file matches of a search.
type SearchResult struct {
	Folders []FolderSummary `json:"folders"`
	Files   []FileRecord    `json:"files"`
}
