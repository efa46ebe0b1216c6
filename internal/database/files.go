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

const fileSelect = `SELECT fi.id, fi.original_name, fi.storage_name, fi.size, fi.extension,
	fi.folder_id, fi.uploader_id, COALESCE(NULLIF(u.display_name, ''), u.username, ''),
	fi.description, fi.state, fi.uploaded_at, fi.completed_at, fi.deleted_at
	FROM files fi LEFT JOIN users u ON u.id = fi.uploader_id`

func scanFile(row rowScanner) (*models.FileRecord, error) {
	var (
		f                      models.FileRecord
		state                  string
		uploadedAt             int64
		completedAt, deletedAt sql.NullInt64
	)
	if err := row.Scan(&f.ID, &f.OriginalName, &f.StorageName, &f.Size, &f.Extension,
		&f.FolderID, &f.UploaderID, &f.UploaderName, &f.Description, &state,
		&uploadedAt, &completedAt, &deletedAt); err != nil {
		return nil, err
	}
	var err error
	if f.State, err = models.ParseFileState(state); err != nil {
		return nil, fmt.Errorf("file %d: %w", f.ID, err)
	}
	f.UploadedAt = fromMillis(uploadedAt)
	f.CompletedAt = timePtr(completedAt)
	f.DeletedAt = timePtr(deletedAt)
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]models.FileRecord, error) {
	defer closeQuietly(rows)

	out := []models.FileRecord{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// CreateFile inserts a Pending record. A storage name already used in the
// same folder is ErrConflict so the caller can regenerate it.
func (db *DB) CreateFile(ctx context.Context, f *models.FileRecord) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	f.State = models.FileStatePending
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO files (original_name, storage_name, size, extension, folder_id, uploader_id,
			description, state, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.OriginalName, f.StorageName, f.Size, f.Extension, f.FolderID, f.UploaderID,
		f.Description, f.State.String(), toMillis(f.UploadedAt))
	if err != nil {
		return mapError(err, "create file "+f.OriginalName)
	}
	f.ID, err = res.LastInsertId()
	return err
}

// GetFile returns a non-deleted file in any state.
func (db *DB) GetFile(ctx context.Context, id int64) (*models.FileRecord, error) {
	f, err := scanFile(db.conn.QueryRowContext(ctx,
		fileSelect+` WHERE fi.id = ? AND fi.deleted_at IS NULL`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("get file %d", id))
	}
	return f, nil
}

// MarkFileComplete moves a Pending file to Complete with its final size.
func (db *DB) MarkFileComplete(ctx context.Context, id, size int64, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE files SET state = 'Complete', size = ?, completed_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, size, toMillis(at), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("complete file %d", id))
	}
	return requireAffected(res, fmt.Sprintf("complete file %d", id))
}

// SoftDeleteFile tombstones one file.
func (db *DB) SoftDeleteFile(ctx context.Context, id int64, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE files SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, toMillis(at), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("delete file %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete file %d", id))
}

// ListFilesInFolder lists the completed, non-deleted files of a folder, newest first.
func (db *DB) ListFilesInFolder(ctx context.Context, folderID int64) ([]models.FileRecord, error) {
	rows, err := db.conn.QueryContext(ctx, fileSelect+`
		WHERE fi.folder_id = ? AND fi.deleted_at IS NULL AND fi.state = 'Complete'
		ORDER BY fi.uploaded_at DESC, fi.id DESC
	`, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files in folder %d: %w", folderID, err)
	}
	return scanFiles(rows)
}

// SearchFolders matches query against folder names and descriptions. A
// non-empty scope restricts the match to those folder ids.
func (db *DB) SearchFolders(ctx context.Context, query string, scope []int64) ([]models.FolderSummary, error) {
	pattern := likePattern(query)
	q := folderSummarySelect + `
		WHERE f.deleted_at IS NULL
		AND (f.name LIKE ? ESCAPE '\' OR f.description LIKE ? ESCAPE '\')`
	args := []interface{}{pattern, pattern}
	if len(scope) > 0 {
		in, inArgs := inClause(scope)
		q += ` AND f.id IN (` + in + `)`
		args = append(args, inArgs...)
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY f.name, f.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("search folders: %w", err)
	}
	return scanFolderSummaries(rows)
}

// SearchFiles matches query against completed file names and descriptions.
// A non-empty scope restricts the match to files inside those folders.
func (db *DB) SearchFiles(ctx context.Context, query string, scope []int64) ([]models.FileRecord, error) {
	pattern := likePattern(query)
	q := fileSelect + `
		WHERE fi.deleted_at IS NULL AND fi.state = 'Complete'
		AND (fi.original_name LIKE ? ESCAPE '\' OR fi.description LIKE ? ESCAPE '\')`
	args := []interface{}{pattern, pattern}
	if len(scope) > 0 {
		in, inArgs := inClause(scope)
		q += ` AND fi.folder_id IN (` + in + `)`
		args = append(args, inArgs...)
	}
	rows, err := db.conn.QueryContext(ctx, q+` ORDER BY fi.uploaded_at DESC, fi.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	return scanFiles(rows)
}

// ListPendingBefore returns non-deleted Pending files prepared before cutoff.
func (db *DB) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.FileRecord, error) {
	rows, err := db.conn.QueryContext(ctx, fileSelect+`
		WHERE fi.state = 'Pending' AND fi.deleted_at IS NULL AND fi.uploaded_at < ?
		ORDER BY fi.uploaded_at LIMIT ?
	`, toMillis(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending files: %w", err)
	}
	return scanFiles(rows)
}
