// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package permission decides whether a user may exercise a capability on a
// folder. Decisions are pure reads over current state.
//
// Rules, first match wins:
//
//  1. Admin: allow.
//  2. Root sentinel folder: deny.
//  3. Missing or soft-deleted folder: deny.
//  4. Read on a public folder: allow.
//  5. Folder creator: allow.
//  6. Active grant carrying the capability (upload implies read): allow.
//  7. Otherwise deny.
package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

// FolderStore loads non-deleted folders.
type FolderStore interface {
	GetFolder(ctx context.Context, id int64) (*models.Folder, error)
}

// GrantStore loads the single active grant of a (folder, user) pair.
type GrantStore interface {
	GetActiveGrant(ctx context.Context, folderID, userID int64) (*models.FolderPermission, error)
}

// UserStore loads non-deleted users.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Engine evaluates folder capabilities.
type Engine struct {
	folders FolderStore
	grants  GrantStore
	users   UserStore
}

// NewEngine creates an Engine over the given stores.
func NewEngine(folders FolderStore, grants GrantStore, users UserStore) *Engine {
	return &Engine{folders: folders, grants: grants, users: users}
}

// Check decides whether actor may exercise capability on folderID. A
// NotFound folder or grant is a plain deny. Any other store error is returned
// with allowed=false.
func (e *Engine) Check(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) (bool, error) {
	allowed, err := e.decide(ctx, actor, folderID, capability)
	metrics.RecordPermissionDecision(capability.String(), allowed, err)
	return allowed, err
}

func (e *Engine) decide(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if folderID == models.RootFolderID || actor.IsAnonymous() {
		return false, nil
	}

	folder, err := e.folders.GetFolder(ctx, folderID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load folder %d: %w", folderID, err)
	}
	if folder.IsDeleted() {
		return false, nil
	}

	if capability == models.CapRead && folder.IsPublic {
		return true, nil
	}
	if folder.CreatorID == actor.UserID {
		return true, nil
	}

	grant, err := e.grants.GetActiveGrant(ctx, folderID, actor.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load grant %d/%d: %w", folderID, actor.UserID, err)
	}
	return grant.Allows(capability), nil
}

// HasPermission resolves userID to an actor and applies Check. It never
// fails: unknown users and store errors deny, and errors are logged.
func (e *Engine) HasPermission(ctx context.Context, folderID, userID int64, capability models.Capability) bool {
	actor := models.Actor{UserID: userID, Role: models.RoleNormal}
	if userID != 0 {
		u, err := e.users.GetUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Permission check could not load user")
			}
			metrics.RecordPermissionDecision(capability.String(), false, nil)
			return false
		}
		actor = models.ActorFromUser(u)
	}

	allowed, err := e.Check(ctx, actor, folderID, capability)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Int64("folder_id", folderID).
			Str("capability", capability.String()).
			Msg("Permission check failed closed")
		return false
	}
	return allowed
}

// Require is Check that turns a deny into ErrPermissionDenied.
func (e *Engine) Require(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) error {
	ok, err := e.Check(ctx, actor, folderID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s on folder %d: %w", capability, folderID, models.ErrPermissionDenied)
	}
	return nil
}

// CanManageGrants reports whether actor may grant or revoke on folder: only
// its creator or an Admin.
func CanManageGrants(actor models.Actor, folder *models.Folder) bool {
	return actor.IsAdmin() || (!actor.IsAnonymous() && folder.CreatorID == actor.UserID)
}
