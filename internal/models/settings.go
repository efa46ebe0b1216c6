// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package models

import "time"

// SystemSettings is the singleton settings row.
type SystemSettings struct {
	DefaultLanguage string    `json:"default_language"`
	SiteName        string    `json:"site_name"`
	LoginLogoPath   string    `json:"login_logo_path"`
	HomeLogoPath    string    `json:"home_logo_path"`
	MaxFileSizeMB   int64     `json:"max_file_size_mb"`
	StorageLimitMB  int64     `json:"storage_limit_mb"`
	FileStoragePath string    `json:"file_storage_path"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSystemSettings returns the values written on first start.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		DefaultLanguage: "zh-Hans",
		SiteName:        "SquadFile",
		MaxFileSizeMB:   100,
		StorageLimitMB:  10240,
		FileStoragePath: "uploads",
	}
}

// MaxFileSizeBytes returns the upload size limit in bytes.
func (s SystemSettings) MaxFileSizeBytes() int64 {
	return s.MaxFileSizeMB * 1024 * 1024
}
