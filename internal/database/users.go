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

const userColumns = `id, username, password_hash, email, display_name, department, role, status,
	language, is_first_login, login_fail_count, lock_time, last_login_time, last_login_ip,
	created_at, deleted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                          models.User
		role, status               string
		lockTime, lastLogin, delAt sql.NullInt64
		createdAt                  int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.DisplayName,
		&u.Department, &role, &status, &u.Language, &u.IsFirstLogin, &u.LoginFailCount,
		&lockTime, &lastLogin, &u.LastLoginIP, &createdAt, &delAt); err != nil {
		return nil, err
	}

	var err error
	if u.Role, err = models.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	if u.Status, err = models.ParseUserStatus(status); err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.LockTime = timePtr(lockTime)
	u.LastLoginTime = timePtr(lastLogin)
	u.CreatedAt = fromMillis(createdAt)
	u.DeletedAt = timePtr(delAt)
	return &u, nil
}

// CreateUser inserts u and sets its ID. A duplicate active username is ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("create user %s: %w: invalid role", u.Username, models.ErrValidation)
	}
	if u.Status == 0 {
		u.Status = models.StatusActive
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, display_name, department, role, status,
			language, is_first_login, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.Username, u.PasswordHash, u.Email, u.DisplayName, u.Department, u.Role.String(),
		u.Status.String(), u.Language, u.IsFirstLogin, toMillis(u.CreatedAt))
	if err != nil {
		return mapError(err, "create user "+u.Username)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUser returns an active (not soft-deleted) user.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("get user %d", id))
	}
	return u, nil
}

// GetUserByUsername looks up an active user case-insensitively.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username))
	if err != nil {
		return nil, mapError(err, "get user "+username)
	}
	return u, nil
}

// ListUsers returns all active users ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer closeQuietly(rows)

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser writes the profile, role and status fields of u.
func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET email = ?, display_name = ?, department = ?, role = ?, status = ?, language = ?
		WHERE id = ? AND deleted_at IS NULL
	`, u.Email, u.DisplayName, u.Department, u.Role.String(), u.Status.String(), u.Language, u.ID)
	if err != nil {
		return mapError(err, fmt.Sprintf("update user %d", u.ID))
	}
	return requireAffected(res, fmt.Sprintf("update user %d", u.ID))
}

// UpdatePassword replaces the password hash. clearFirstLogin also resets
// the first-login flag, which is the case for self-service changes.
func (db *DB) UpdatePassword(ctx context.Context, id int64, hash string, clearFirstLogin bool) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET password_hash = ?,
			is_first_login = CASE WHEN ? THEN 0 ELSE is_first_login END
		WHERE id = ? AND deleted_at IS NULL
	`, hash, clearFirstLogin, id)
	if err != nil {
		return mapError(err, fmt.Sprintf("update password %d", id))
	}
	return requireAffected(res, fmt.Sprintf("update password %d", id))
}

// LoginState is the lockout bookkeeping persisted after each attempt.
type LoginState struct {
	FailCount int
	Status    models.UserStatus
	LockTime  *time.Time
}

// SaveLoginState persists the lockout counters and status.
func (db *DB) SaveLoginState(ctx context.Context, id int64, st LoginState) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE users SET login_fail_count = ?, status = ?, lock_time = ?
		WHERE id = ? AND deleted_at IS NULL
	`, st.FailCount, st.Status.String(), nullMillis(st.LockTime), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("save login state %d", id))
	}
	return requireAffected(res, fmt.Sprintf("save login state %d", id))
}

// RecordLoginFailure counts one failed password in a single statement, so
// concurrent failures are never lost. Once the count reaches threshold the
// account is Locked with lock time at. The stored state is returned.
func (db *DB) RecordLoginFailure(ctx context.Context, id int64, threshold int, at time.Time) (LoginState, error) {
	var (
		st       LoginState
		status   string
		lockTime sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `
		UPDATE users SET
			login_fail_count = login_fail_count + 1,
			status = CASE WHEN login_fail_count + 1 >= ? THEN ? ELSE status END,
			lock_time = CASE WHEN login_fail_count + 1 >= ? THEN ? ELSE lock_time END
		WHERE id = ? AND deleted_at IS NULL
		RETURNING login_fail_count, status, lock_time
	`, threshold, models.StatusLocked.String(), threshold, toMillis(at), id).Scan(&st.FailCount, &status, &lockTime)
	if err != nil {
		return LoginState{}, mapError(err, fmt.Sprintf("record login failure %d", id))
	}
	if st.Status, err = models.ParseUserStatus(status); err != nil {
		return LoginState{}, err
	}
	st.LockTime = timePtr(lockTime)
	return st, nil
}

// RecordLogin stores the last successful login time and client IP.
func (db *DB) RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_login_time = ?, last_login_ip = ? WHERE id = ?`,
		toMillis(at), ip, id)
	return mapError(err, fmt.Sprintf("record login %d", id))
}

// SoftDeleteUser tombstones the user.
func (db *DB) SoftDeleteUser(ctx context.Context, id int64, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, toMillis(at), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("delete user %d", id))
	}
	return requireAffected(res, fmt.Sprintf("delete user %d", id))
}

// CountActiveAdmins counts non-deleted Admin users with Active status.
func (db *DB) CountActiveAdmins(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'Admin' AND status = 'Active' AND deleted_at IS NULL`).Scan(&n)
	return n, mapError(err, "count admins")
}

// CountUsers counts non-deleted users.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n)
	return n, mapError(err, "count users")
}
