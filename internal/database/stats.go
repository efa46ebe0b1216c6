// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/squadfile/internal/models"
)

// FileTotals returns the count and byte total of completed, non-deleted files.
func (db *DB) FileTotals(ctx context.Context) (count int, bytes int64, err error) {
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files
		WHERE deleted_at IS NULL AND state = 'Complete'
	`).Scan(&count, &bytes)
	return count, bytes, mapError(err, "file totals")
}

// LatestFiles returns the most recently uploaded completed files.
func (db *DB) LatestFiles(ctx context.Context, limit int) ([]models.FileRecord, error) {
	rows, err := db.conn.QueryContext(ctx, fileSelect+`
		WHERE fi.deleted_at IS NULL AND fi.state = 'Complete'
		ORDER BY fi.uploaded_at DESC, fi.id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest files: %w", err)
	}
	return scanFiles(rows)
}

// TypeDistribution groups completed files by lower-cased extension.
func (db *DB) TypeDistribution(ctx context.Context) ([]models.TypeCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT LOWER(extension) AS ext, COUNT(*), COALESCE(SUM(size), 0) FROM files
		WHERE deleted_at IS NULL AND state = 'Complete'
		GROUP BY ext ORDER BY COUNT(*) DESC, ext
	`)
	if err != nil {
		return nil, fmt.Errorf("type distribution: %w", err)
	}
	defer closeQuietly(rows)

	out := []models.TypeCount{}
	for rows.Next() {
		var tc models.TypeCount
		if err := rows.Scan(&tc.Extension, &tc.Count, &tc.Bytes); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
