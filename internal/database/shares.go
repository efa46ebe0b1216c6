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

const shareColumns = `s.id, s.item_id, s.item_type, s.short_code, s.password_hash, s.created_by,
	s.created_at, s.expires_at, s.deleted_at`

// shareListingFrom resolves the item name from whichever table item_type points at.
const shareListingFrom = ` FROM share_records s
	LEFT JOIN files fi ON s.item_type = 'File' AND fi.id = s.item_id
	LEFT JOIN folders fo ON s.item_type = 'Folder' AND fo.id = s.item_id
	LEFT JOIN users u ON u.id = s.created_by
	WHERE s.deleted_at IS NULL`

func scanShare(row rowScanner, extra ...interface{}) (*models.ShareRecord, error) {
	var (
		s                    models.ShareRecord
		itemType             string
		createdAt            int64
		expiresAt, deletedAt sql.NullInt64
	)
	dest := []interface{}{&s.ID, &s.ItemID, &itemType, &s.ShortCode, &s.PasswordHash,
		&s.CreatedBy, &createdAt, &expiresAt, &deletedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	var err error
	if s.ItemType, err = models.ParseItemType(itemType); err != nil {
		return nil, fmt.Errorf("share %d: %w", s.ID, err)
	}
	s.CreatedAt = fromMillis(createdAt)
	s.ExpiresAt = timePtr(expiresAt)
	s.DeletedAt = timePtr(deletedAt)
	return &s, nil
}

// CreateShare inserts s. A short code that is already taken is ErrConflict.
func (db *DB) CreateShare(ctx context.Context, s *models.ShareRecord) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO share_records (item_id, item_type, short_code, password_hash, created_by,
			created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ItemID, s.ItemType.String(), s.ShortCode, s.PasswordHash, s.CreatedBy,
		toMillis(s.CreatedAt), nullMillis(s.ExpiresAt))
	if err != nil {
		return mapError(err, "create share")
	}
	s.ID, err = res.LastInsertId()
	return err
}

// GetShareByCode returns a non-deleted share. Expiry is the caller's concern.
func (db *DB) GetShareByCode(ctx context.Context, code string) (*models.ShareRecord, error) {
	s, err := scanShare(db.conn.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM share_records s WHERE s.short_code = ? AND s.deleted_at IS NULL`, code))
	if err != nil {
		return nil, mapError(err, "get share")
	}
	return s, nil
}

// ListShares pages through non-deleted shares, newest first. A non-empty
// search matches the short code or the shared item's name.
func (db *DB) ListShares(ctx context.Context, search string, page, pageSize int) ([]models.ShareListing, int, error) {
	where := ""
	var args []interface{}
	if search != "" {
		p := likePattern(search)
		where = ` AND (s.short_code LIKE ? ESCAPE '\' OR COALESCE(fi.original_name, fo.name, '') LIKE ? ESCAPE '\')`
		args = append(args, p, p)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*)`+shareListingFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shares: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT `+shareColumns+`,
		COALESCE(fi.original_name, fo.name, ''), COALESCE(NULLIF(u.display_name, ''), u.username, '')`+
		shareListingFrom+where+` ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list shares: %w", err)
	}
	defer closeQuietly(rows)

	out := []models.ShareListing{}
	for rows.Next() {
		var l models.ShareListing
		s, err := scanShare(rows, &l.ItemName, &l.CreatorName)
		if err != nil {
			return nil, 0, fmt.Errorf("scan share: %w", err)
		}
		l.ShareRecord = *s
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// SoftDeleteShares tombstones the listed shares and returns how many changed.
func (db *DB) SoftDeleteShares(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	res, err := db.conn.ExecContext(ctx,
		`UPDATE share_records SET deleted_at = ? WHERE deleted_at IS NULL AND id IN (`+in+`)`,
		append([]interface{}{toMillis(at)}, args...)...)
	if err != nil {
		return 0, mapError(err, "delete shares")
	}
	return res.RowsAffected()
}

// CountActiveShares counts non-deleted shares that have not expired at now.
func (db *DB) CountActiveShares(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM share_records
		WHERE deleted_at IS NULL AND (expires_at IS NULL OR expires_at >= ?)
	`, toMillis(now)).Scan(&n)
	return n, mapError(err, "count shares")
}
