// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/squadfile/internal/logging"
)

// Migration is one forward-only schema step. Version is its 1-based
// position in the migrations slice.
type Migration struct {
	Name string
	SQL  string
}

var migrations = []Migration{
	{
		Name: "create users table",
		SQL: `
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL COLLATE NOCASE,
				password_hash TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				display_name TEXT NOT NULL DEFAULT '',
				department TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL CHECK (role IN ('Normal', 'Admin')),
				status TEXT NOT NULL CHECK (status IN ('Active', 'Inactive', 'Locked')),
				language TEXT NOT NULL DEFAULT '',
				is_first_login INTEGER NOT NULL DEFAULT 1,
				login_fail_count INTEGER NOT NULL DEFAULT 0,
				lock_time INTEGER,
				last_login_time INTEGER,
				last_login_ip TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				deleted_at INTEGER
			);
			CREATE UNIQUE INDEX idx_users_username_active ON users(username) WHERE deleted_at IS NULL;
		`,
	},
	{
		Name: "create folders table",
		SQL: `
			CREATE TABLE folders (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				parent_id INTEGER NOT NULL DEFAULT 0,
				creator_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				description TEXT NOT NULL DEFAULT '',
				is_public INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				deleted_at INTEGER
			);
			CREATE INDEX idx_folders_parent ON folders(parent_id) WHERE deleted_at IS NULL;
			CREATE INDEX idx_folders_creator ON folders(creator_id) WHERE deleted_at IS NULL;
		`,
	},
	{
		Name: "create files table",
		SQL: `
			CREATE TABLE files (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				original_name TEXT NOT NULL,
				storage_name TEXT NOT NULL,
				size INTEGER NOT NULL DEFAULT 0,
				extension TEXT NOT NULL DEFAULT '',
				folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE RESTRICT,
				uploader_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				description TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL CHECK (state IN ('Pending', 'Complete')),
				uploaded_at INTEGER NOT NULL,
				completed_at INTEGER,
				deleted_at INTEGER,
				UNIQUE (folder_id, storage_name)
			);
			CREATE INDEX idx_files_folder ON files(folder_id) WHERE deleted_at IS NULL;
			CREATE INDEX idx_files_pending ON files(uploaded_at) WHERE state = 'Pending' AND deleted_at IS NULL;
		`,
	},
	{
		Name: "create folder permissions table",
		SQL: `
			CREATE TABLE folder_permissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE RESTRICT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
				can_read INTEGER NOT NULL DEFAULT 0,
				can_upload INTEGER NOT NULL DEFAULT 0,
				can_delete INTEGER NOT NULL DEFAULT 0,
				can_create_subfolder INTEGER NOT NULL DEFAULT 0,
				granted_by INTEGER NOT NULL,
				granted_at INTEGER NOT NULL,
				deleted_at INTEGER
			);
			CREATE UNIQUE INDEX idx_folder_permissions_active
				ON folder_permissions(folder_id, user_id) WHERE deleted_at IS NULL;
			CREATE INDEX idx_folder_permissions_user ON folder_permissions(user_id) WHERE deleted_at IS NULL;
		`,
	},
	{
		Name: "create share records table",
		SQL: `
			CREATE TABLE share_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				item_id INTEGER NOT NULL,
				item_type TEXT NOT NULL CHECK (item_type IN ('File', 'Folder')),
				short_code TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				created_by INTEGER NOT NULL,
				created_at INTEGER NOT NULL,
				expires_at INTEGER,
				deleted_at INTEGER
			);
		`,
	},
	{
		Name: "create system settings table",
		SQL: `
			CREATE TABLE system_settings (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				default_language TEXT NOT NULL,
				site_name TEXT NOT NULL,
				login_logo_path TEXT NOT NULL DEFAULT '',
				home_logo_path TEXT NOT NULL DEFAULT '',
				max_file_size_mb INTEGER NOT NULL,
				storage_limit_mb INTEGER NOT NULL,
				file_storage_path TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`,
	},
}

// migrate applies pending migrations, each in its own transaction.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for i, m := range migrations {
		version := i + 1

		var count int
		if err := db.conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if count > 0 {
			continue
		}

		logging.Info().Int("version", version).Str("name", m.Name).Msg("Running migration")
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", version, m.Name, err)
		}
	}
	return nil
}
