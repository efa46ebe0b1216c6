// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package database

import (
	"context"
	"time"

	"github.com/tomtom215/squadfile/internal/models"
)

// EnsureSettings writes defaults as the singleton row unless one exists.
// It is safe to call concurrently and repeatedly.
func (db *DB) EnsureSettings(ctx context.Context, defaults models.SystemSettings, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO system_settings (id, default_language, site_name, login_logo_path, home_logo_path,
			max_file_size_mb, storage_limit_mb, file_storage_path, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, defaults.DefaultLanguage, defaults.SiteName, defaults.LoginLogoPath, defaults.HomeLogoPath,
		defaults.MaxFileSizeMB, defaults.StorageLimitMB, defaults.FileStoragePath, toMillis(at))
	return mapError(err, "ensure settings")
}

// GetSettings reads the singleton row. ErrNotFound means EnsureSettings never ran.
func (db *DB) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	var (
		s         models.SystemSettings
		updatedAt int64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT default_language, site_name, login_logo_path, home_logo_path,
			max_file_size_mb, storage_limit_mb, file_storage_path, updated_at
		FROM system_settings WHERE id = 1
	`).Scan(&s.DefaultLanguage, &s.SiteName, &s.LoginLogoPath, &s.HomeLogoPath,
		&s.MaxFileSizeMB, &s.StorageLimitMB, &s.FileStoragePath, &updatedAt)
	if err != nil {
		return nil, mapError(err, "get settings")
	}
	s.UpdatedAt = fromMillis(updatedAt)
	return &s, nil
}

// UpdateSettings overwrites the singleton row.
func (db *DB) UpdateSettings(ctx context.Context, s *models.SystemSettings) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE system_settings SET default_language = ?, site_name = ?, login_logo_path = ?,
			home_logo_path = ?, max_file_size_mb = ?, storage_limit_mb = ?, file_storage_path = ?,
			updated_at = ?
		WHERE id = 1
	`, s.DefaultLanguage, s.SiteName, s.LoginLogoPath, s.HomeLogoPath, s.MaxFileSizeMB,
		s.StorageLimitMB, s.FileStoragePath, toMillis(s.UpdatedAt))
	if err != nil {
		return mapError(err, "update settings")
	}
	return requireAffected(res, "update settings")
}
