// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/squadfile/internal/models"
)

const folderColumns = `f.id, f.name, f.parent_id, f.creator_id, f.description, f.is_public,
	f.created_at, f.updated_at, f.deleted_at`

// folderSummarySelect joins the creator name and a live count of non-deleted files.
const folderSummarySelect = `SELECT ` + folderColumns + `,
	COALESCE(NULLIF(u.display_name, ''), u.username, ''),
	(SELECT COUNT(*) FROM files fi WHERE fi.folder_id = f.id AND fi.deleted_at IS NULL)
	FROM folders f LEFT JOIN users u ON u.id = f.creator_id`

func scanFolder(row rowScanner, extra ...interface{}) (*models.Folder, error) {
	var (
		f                    models.Folder
		createdAt, updatedAt int64
		deletedAt            sql.NullInt64
	)
	dest := []interface{}{&f.ID, &f.Name, &f.ParentID, &f.CreatorID, &f.Description, &f.IsPublic,
		&createdAt, &updatedAt, &deletedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	f.CreatedAt = fromMillis(createdAt)
	f.UpdatedAt = fromMillis(updatedAt)
	f.DeletedAt = timePtr(deletedAt)
	return &f, nil
}

func scanFolderSummaries(rows *sql.Rows) ([]models.FolderSummary, error) {
	defer closeQuietly(rows)

	out := []models.FolderSummary{}
	for rows.Next() {
		var s models.FolderSummary
		f, err := scanFolder(rows, &s.CreatorName, &s.FileCount)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		s.Folder = *f
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateFolder inserts f and sets its ID and timestamps.
func (db *DB) CreateFolder(ctx context.Context, f *models.Folder) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.UpdatedAt = f.CreatedAt
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO folders (name, parent_id, creator_id, description, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.Name, f.ParentID, f.CreatorID, f.Description, f.IsPublic, toMillis(f.CreatedAt), toMillis(f.UpdatedAt))
	if err != nil {
		return mapError(err, "create folder "+f.Name)
	}
	f.ID, err = res.LastInsertId()
	return err
}

// GetFolder returns a non-deleted folder or ErrNotFound.
func (db *DB) GetFolder(ctx context.Context, id int64) (*models.Folder, error) {
	f, err := scanFolder(db.conn.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders f WHERE f.id = ? AND f.deleted_at IS NULL`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("get folder %d", id))
	}
	return f, nil
}

// UpdateFolder applies the non-nil fields of upd and returns the new row.
func (db *DB) UpdateFolder(ctx context.Context, id int64, upd models.FolderUpdate, at time.Time) (*models.Folder, error) {
	var out *models.Folder
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		f, err := scanFolder(tx.QueryRowContext(ctx,
			`SELECT `+folderColumns+` FROM folders f WHERE f.id = ? AND f.deleted_at IS NULL`, id))
		if err != nil {
			return mapError(err, fmt.Sprintf("update folder %d", id))
		}
		if upd.Name != nil {
			f.Name = *upd.Name
		}
		if upd.Description != nil {
			f.Description = *upd.Description
		}
		if upd.IsPublic != nil {
			f.IsPublic = *upd.IsPublic
		}
		f.UpdatedAt = at.UTC()

		if _, err := tx.ExecContext(ctx,
			`UPDATE folders SET name = ?, description = ?, is_public = ?, updated_at = ? WHERE id = ?`,
			f.Name, f.Description, f.IsPublic, toMillis(f.UpdatedAt), id); err != nil {
			return mapError(err, fmt.Sprintf("update folder %d", id))
		}
		out = f
		return nil
	})
	return out, err
}

// SoftDeleteFolder tombstones the folder and every non-deleted file directly
// inside it. Sub-folders are left alone. Returns the number of files deleted.
func (db *DB) SoftDeleteFolder(ctx context.Context, id int64, at time.Time) (int64, error) {
	var files int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE folders SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
			toMillis(at), toMillis(at), id)
		if err != nil {
			return mapError(err, fmt.Sprintf("delete folder %d", id))
		}
		if err := requireAffected(res, fmt.Sprintf("delete folder %d", id)); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE files SET deleted_at = ? WHERE folder_id = ? AND deleted_at IS NULL`, toMillis(at), id)
		if err != nil {
			return mapError(err, fmt.Sprintf("delete files of folder %d", id))
		}
		files, err = res.RowsAffected()
		return err
	})
	return files, err
}

// ListChildFolders lists the non-deleted direct children of parentID.
func (db *DB) ListChildFolders(ctx context.Context, parentID int64) ([]models.FolderSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		folderSummarySelect+` WHERE f.parent_id = ? AND f.deleted_at IS NULL ORDER BY f.name, f.id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child folders of %d: %w", parentID, err)
	}
	return scanFolderSummaries(rows)
}

// ListAccessibleFolders returns the folders userID created, holds an active
// grant on, or that are public below the root level. Each folder appears once.
func (db *DB) ListAccessibleFolders(ctx context.Context, userID int64) ([]models.FolderSummary, error) {
	rows, err := db.conn.QueryContext(ctx, folderSummarySelect+`
		WHERE f.deleted_at IS NULL AND (
			f.creator_id = ?
			OR EXISTS (
				SELECT 1 FROM folder_permissions p
				WHERE p.folder_id = f.id AND p.user_id = ? AND p.deleted_at IS NULL
			)
			OR (f.is_public = 1 AND f.parent_id <> 0)
		)
		ORDER BY f.id
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessible folders for %d: %w", userID, err)
	}
	return scanFolderSummaries(rows)
}

// DescendantFolderIDs returns rootID and the ids of all non-deleted folders
// below it. For the root sentinel it starts from the top-level folders.
func (db *DB) DescendantFolderIDs(ctx context.Context, rootID int64) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `
		WITH RECURSIVE tree(id) AS (
			SELECT id FROM folders
			WHERE (id = ? OR (? = 0 AND parent_id = 0)) AND deleted_at IS NULL
			UNION
			SELECT f.id FROM folders f JOIN tree t ON f.parent_id = t.id WHERE f.deleted_at IS NULL
		)
		SELECT id FROM tree
	`, rootID, rootID)
	if err != nil {
		return nil, fmt.Errorf("descendants of %d: %w", rootID, err)
	}
	defer closeQuietly(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountFolders counts non-deleted folders.
func (db *DB) CountFolders(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM folders WHERE deleted_at IS NULL`).Scan(&n)
	return n, mapError(err, "count folders")
}
