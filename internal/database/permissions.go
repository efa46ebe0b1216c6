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

const grantSelect = `SELECT p.id, p.folder_id, p.user_id, COALESCE(u.username, ''),
	p.can_read, p.can_upload, p.can_delete, p.can_create_subfolder,
	p.granted_by, p.granted_at, p.deleted_at
	FROM folder_permissions p LEFT JOIN users u ON u.id = p.user_id`

// The conflict target names the partial unique index, so a re-grant updates
// the single active row and concurrent grants serialize on it.
const upsertGrantSQL = `
	INSERT INTO folder_permissions (folder_id, user_id, can_read, can_upload, can_delete,
		can_create_subfolder, granted_by, granted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (folder_id, user_id) WHERE deleted_at IS NULL DO UPDATE SET
		can_read = excluded.can_read,
		can_upload = excluded.can_upload,
		can_delete = excluded.can_delete,
		can_create_subfolder = CASE WHEN ? THEN excluded.can_create_subfolder
			ELSE folder_permissions.can_create_subfolder END,
		granted_by = excluded.granted_by,
		granted_at = excluded.granted_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func scanGrant(row rowScanner) (*models.FolderPermission, error) {
	var (
		p         models.FolderPermission
		grantedAt int64
		deletedAt sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.FolderID, &p.UserID, &p.Username,
		&p.CanRead, &p.CanUpload, &p.CanDelete, &p.CanCreateSubfolder,
		&p.GrantedBy, &grantedAt, &deletedAt); err != nil {
		return nil, err
	}
	p.GrantedAt = fromMillis(grantedAt)
	p.DeletedAt = timePtr(deletedAt)
	return &p, nil
}

func upsertGrant(ctx context.Context, ex execer, g models.Grant, grantedBy int64, at time.Time, setCreateSubfolder bool) (*models.FolderPermission, error) {
	what := fmt.Sprintf("grant folder %d user %d", g.FolderID, g.UserID)
	if _, err := ex.ExecContext(ctx, upsertGrantSQL,
		g.FolderID, g.UserID, g.CanRead, g.CanUpload, g.CanDelete, g.CanCreateSubfolder,
		grantedBy, toMillis(at), setCreateSubfolder); err != nil {
		return nil, mapError(err, what)
	}
	p, err := scanGrant(ex.QueryRowContext(ctx,
		grantSelect+` WHERE p.folder_id = ? AND p.user_id = ? AND p.deleted_at IS NULL`,
		g.FolderID, g.UserID))
	if err != nil {
		return nil, mapError(err, what)
	}
	return p, nil
}

// GetActiveGrant returns the single active grant for (folderID, userID) or ErrNotFound.
func (db *DB) GetActiveGrant(ctx context.Context, folderID, userID int64) (*models.FolderPermission, error) {
	p, err := scanGrant(db.conn.QueryRowContext(ctx,
		grantSelect+` WHERE p.folder_id = ? AND p.user_id = ? AND p.deleted_at IS NULL`,
		folderID, userID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("grant folder %d user %d", folderID, userID))
	}
	return p, nil
}

// UpsertGrant creates or updates the active grant. When setCreateSubfolder
// is false an existing row keeps its CreateSubfolder flag.
func (db *DB) UpsertGrant(ctx context.Context, g models.Grant, grantedBy int64, at time.Time, setCreateSubfolder bool) (*models.FolderPermission, error) {
	var out *models.FolderPermission
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		p, err := upsertGrant(ctx, tx, g, grantedBy, at, setCreateSubfolder)
		out = p
		return err
	})
	return out, err
}

// UpsertGrants applies every grant, all four flags included, in one transaction.
func (db *DB) UpsertGrants(ctx context.Context, grants []models.Grant, grantedBy int64, at time.Time) ([]models.FolderPermission, error) {
	out := make([]models.FolderPermission, 0, len(grants))
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, g := range grants {
			p, err := upsertGrant(ctx, tx, g, grantedBy, at, true)
			if err != nil {
				return err
			}
			out = append(out, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeGrant soft-deletes the active grant. It reports false when there was none.
func (db *DB) RevokeGrant(ctx context.Context, folderID, userID int64, at time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE folder_permissions SET deleted_at = ?
		WHERE folder_id = ? AND user_id = ? AND deleted_at IS NULL
	`, toMillis(at), folderID, userID)
	if err != nil {
		return false, mapError(err, fmt.Sprintf("revoke folder %d user %d", folderID, userID))
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RevokeGrants soft-deletes every listed grant in one transaction and
// returns how many active rows were revoked.
func (db *DB) RevokeGrants(ctx context.Context, targets []models.GrantTarget, at time.Time) (int64, error) {
	var total int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range targets {
			res, err := tx.ExecContext(ctx, `
				UPDATE folder_permissions SET deleted_at = ?
				WHERE folder_id = ? AND user_id = ? AND deleted_at IS NULL
			`, toMillis(at), t.FolderID, t.UserID)
			if err != nil {
				return mapError(err, fmt.Sprintf("revoke folder %d user %d", t.FolderID, t.UserID))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

// ListFolderGrants lists the active grants on a folder with usernames.
func (db *DB) ListFolderGrants(ctx context.Context, folderID int64) ([]models.FolderPermission, error) {
	rows, err := db.conn.QueryContext(ctx,
		grantSelect+` WHERE p.folder_id = ? AND p.deleted_at IS NULL ORDER BY p.user_id`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list grants for folder %d: %w", folderID, err)
	}
	defer closeQuietly(rows)

	out := []models.FolderPermission{}
	for rows.Next() {
		p, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
