// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/squadfile/internal/models"
	"github.com/tomtom215/squadfile/internal/validation"
)

// maxJSONBody caps request bodies that are decoded as JSON.
const maxJSONBody = 1 << 20

// Pagination bounds for admin listings.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// ChangePasswordRequest is the body of PUT /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=128"`
}

// ProfileRequest is the body of PUT /auth/profile.
type ProfileRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	Language    *string `json:"language" validate:"omitempty,max=16"`
}

// CreateFolderRequest is the body of POST /folders.
type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=255,safename"`
	ParentID    int64  `json:"parent_id" validate:"gte=0"`
	Description string `json:"description" validate:"max=1000"`
	IsPublic    bool   `json:"is_public"`
}

// UpdateFolderRequest is the body of PUT /folders/{id}.
type UpdateFolderRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255,safename"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsPublic    *bool   `json:"is_public"`
}

// GrantRequest sets the capabilities of one user on one folder.
type GrantRequest struct {
	FolderID           int64 `json:"folder_id" validate:"required,gt=0"`
	UserID             int64 `json:"user_id" validate:"required,gt=0"`
	CanRead            bool  `json:"can_read"`
	CanUpload          bool  `json:"can_upload"`
	CanDelete          bool  `json:"can_delete"`
	CanCreateSubfolder bool  `json:"can_create_subfolder"`
}

func (g GrantRequest) grant() models.Grant {
	return models.Grant{
		FolderID: g.FolderID,
		UserID:   g.UserID,
		Capabilities: models.Capabilities{
			CanRead:            g.CanRead,
			CanUpload:          g.CanUpload,
			CanDelete:          g.CanDelete,
			CanCreateSubfolder: g.CanCreateSubfolder,
		},
	}
}

// BatchGrantRequest is the body of POST /permissions/batch.
type BatchGrantRequest struct {
	Grants []GrantRequest `json:"grants" validate:"required,min=1,max=500,dive"`
}

// BatchRevokeRequest is the body of DELETE /permissions/batch.
type BatchRevokeRequest struct {
	Targets []models.GrantTarget `json:"targets" validate:"required,min=1,max=500,dive"`
}

// PrepareUploadRequest is the body of POST /files/prepare.
type PrepareUploadRequest struct {
	FolderID     int64  `json:"folder_id" validate:"required,gt=0"`
	OriginalName string `json:"original_name" validate:"required,max=255,safename"`
	Size         int64  `json:"size" validate:"gte=0"`
	Extension    string `json:"extension" validate:"max=32"`
	Description  string `json:"description" validate:"max=1000"`
}

// CreateShareRequest is the body of POST /shares.
type CreateShareRequest struct {
	ItemID    int64      `json:"item_id" validate:"required,gt=0"`
	ItemType  string     `json:"item_type" validate:"required,oneof=File Folder file folder"`
	Password  string     `json:"password" validate:"max=128"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// UnlockShareRequest is the body of POST /s/{code}/validate.
type UnlockShareRequest struct {
	Password string `json:"password" validate:"max=128"`
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64,safename"`
	Password    string `json:"password" validate:"required,max=128"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Department  string `json:"department" validate:"max=100"`
	Role        string `json:"role" validate:"omitempty,oneof=Normal Admin normal admin"`
}

// UpdateUserRequest is the body of PUT /admin/users/{id}.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	Role        *string `json:"role" validate:"omitempty,oneof=Normal Admin normal admin"`
	Status      *string `json:"status" validate:"omitempty,oneof=Active Inactive Locked active inactive locked"`
}

// ResetPasswordRequest is the body of PUT /admin/users/{id}/password.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

// DeleteSharesRequest is the body of DELETE /admin/shares.
type DeleteSharesRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
}

// decodeJSON decodes a size-limited body into dst and validates it. It
// writes the error response itself and reports whether the handler may
// continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr)
		return false
	}
	return true
}

// pathID parses a positive int64 chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, raw)
	}
	return id, nil
}

// queryInt64 parses an optional non-negative integer query parameter.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", models.ErrValidation, name, raw)
	}
	return v, nil
}

// pagination reads page and page_size, clamping page_size to maxPageSize.
func pagination(r *http.Request) (page, pageSize int, err error) {
	p, err := queryInt64(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	ps, err := queryInt64(r, "page_size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if p < 1 {
		p = 1
	}
	if ps < 1 {
		ps = defaultPageSize
	}
	if ps > maxPageSize {
		ps = maxPageSize
	}
	return int(p), int(ps), nil
}
