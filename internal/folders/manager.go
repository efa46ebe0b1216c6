// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package folders manages the folder tree and its permission grants. Every
// mutation passes through the permission engine before it reaches the store.
package folders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
	"github.com/tomtom215/squadfile/internal/permission"
)

// Store is the folder, file and grant persistence the manager uses.
type Store interface {
	CreateFolder(ctx context.Context, f *models.Folder) error
	GetFolder(ctx context.Context, id int64) (*models.Folder, error)
	UpdateFolder(ctx context.Context, id int64, upd models.FolderUpdate, at time.Time) (*models.Folder, error)
	SoftDeleteFolder(ctx context.Context, id int64, at time.Time) (int64, error)
	ListChildFolders(ctx context.Context, parentID int64) ([]models.FolderSummary, error)
	ListAccessibleFolders(ctx context.Context, userID int64) ([]models.FolderSummary, error)
	ListFilesInFolder(ctx context.Context, folderID int64) ([]models.FileRecord, error)

	GetUser(ctx context.Context, id int64) (*models.User, error)

	UpsertGrant(ctx context.Context, g models.Grant, grantedBy int64, at time.Time, setCreateSubfolder bool) (*models.FolderPermission, error)
	UpsertGrants(ctx context.Context, grants []models.Grant, grantedBy int64, at time.Time) ([]models.FolderPermission, error)
	RevokeGrant(ctx context.Context, folderID, userID int64, at time.Time) (bool, error)
	RevokeGrants(ctx context.Context, targets []models.GrantTarget, at time.Time) (int64, error)
	ListFolderGrants(ctx context.Context, folderID int64) ([]models.FolderPermission, error)
}

// Directories provisions the physical directory of a folder.
type Directories interface {
	EnsureFolderDir(folderID int64) error
	RemoveFolderDir(folderID int64) error
}

// Permissions is the permission engine.
type Permissions interface {
	Require(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) error
}

// Tokens checks temporary tokens for anonymous folder listings. Listing
// never consumes a token.
type Tokens interface {
	Peek(ctx context.Context, tok string) (*models.TemporaryToken, error)
}

// CreateInput describes a new folder. ParentID 0 creates a root folder.
type CreateInput struct {
	Name        string
	ParentID    int64
	Description string
	IsPublic    bool
}

// Manager implements folder CRUD, listings and grant management.
type Manager struct {
	store  Store
	dirs   Directories
	perms  Permissions
	tokens Tokens
	events events.Publisher
	now    func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, dirs Directories, perms Permissions, tokens Tokens, pub events.Publisher) *Manager {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Manager{store: store, dirs: dirs, perms: perms, tokens: tokens, events: pub, now: time.Now}
}

// CreateFolder creates a folder under in.ParentID. A sub-folder needs
// CreateSubfolder on the parent; a root folder needs an Admin.
func (m *Manager) CreateFolder(ctx context.Context, actor models.Actor, in CreateInput) (*models.Folder, error) {
	if actor.IsAnonymous() {
		return nil, fmt.Errorf("create folder: %w", models.ErrPermissionDenied)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", models.ErrValidation)
	}

	if in.ParentID == models.RootFolderID {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("create root folder: %w", models.ErrPermissionDenied)
		}
	} else if err := m.perms.Require(ctx, actor, in.ParentID, models.CapCreateSubfolder); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	f := &models.Folder{
		Name:        name,
		ParentID:    in.ParentID,
		CreatorID:   actor.UserID,
		Description: in.Description,
		IsPublic:    in.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.CreateFolder(ctx, f); err != nil {
		return nil, err
	}

	if err := m.dirs.EnsureFolderDir(f.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("folder_id", f.ID).Msg("Failed to provision folder directory")
	}

	m.publish(ctx, actor, audit.EventTypeFolderCreated, f, map[string]interface{}{
		"parent_id": f.ParentID,
		"is_public": f.IsPublic,
	})
	return f, nil
}

// UpdateFolder changes name, description or visibility. It needs the
// Delete tier: owner, Admin or an explicit delete grant.
func (m *Manager) UpdateFolder(ctx context.Context, actor models.Actor, folderID int64, upd models.FolderUpdate) (*models.Folder, error) {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: folder name must not be empty", models.ErrValidation)
		}
		upd.Name = &trimmed
	}
	if err := m.perms.Require(ctx, actor, folderID, models.CapDelete); err != nil {
		return nil, err
	}
	f, err := m.store.UpdateFolder(ctx, folderID, upd, m.now().UTC())
	if err != nil {
		return nil, err
	}
	m.publish(ctx, actor, audit.EventTypeFolderUpdated, f, nil)
	return f, nil
}

// DeleteFolder soft-deletes the folder and the files directly inside it,
// then removes its directory. Directory removal failures are logged only.
func (m *Manager) DeleteFolder(ctx context.Context, actor models.Actor, folderID int64) error {
	if err := m.perms.Require(ctx, actor, folderID, models.CapDelete); err != nil {
		return err
	}
	f, err := m.store.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	files, err := m.store.SoftDeleteFolder(ctx, folderID, m.now().UTC())
	if err != nil {
		return err
	}

	if err := m.dirs.RemoveFolderDir(folderID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("folder_id", folderID).Msg("Failed to remove folder directory")
	}

	m.publish(ctx, actor, audit.EventTypeFolderDeleted, f, map[string]interface{}{"files_deleted": files})
	return nil
}

// ListAccessibleFolders lists what the actor created, holds a grant on, or
// can see as a non-root public folder.
func (m *Manager) ListAccessibleFolders(ctx context.Context, actor models.Actor) ([]models.FolderSummary, error) {
	if actor.IsAnonymous() {
		return []models.FolderSummary{}, nil
	}
	return m.store.ListAccessibleFolders(ctx, actor.UserID)
}

// GetFolder returns a folder the actor may read.
func (m *Manager) GetFolder(ctx context.Context, actor models.Actor, folderID int64) (*models.Folder, error) {
	if err := m.perms.Require(ctx, actor, folderID, models.CapRead); err != nil {
		return nil, err
	}
	return m.store.GetFolder(ctx, folderID)
}

// GetChildFolders lists the children of parentID. Listing the root needs an
// Admin, like any other permission check against the root.
func (m *Manager) GetChildFolders(ctx context.Context, actor models.Actor, parentID int64) ([]models.FolderSummary, error) {
	if err := m.perms.Require(ctx, actor, parentID, models.CapRead); err != nil {
		return nil, err
	}
	return m.store.ListChildFolders(ctx, parentID)
}

// ListFilesInFolder lists the completed files of a folder the actor may read.
func (m *Manager) ListFilesInFolder(ctx context.Context, actor models.Actor, folderID int64) ([]models.FileRecord, error) {
	if err := m.perms.Require(ctx, actor, folderID, models.CapRead); err != nil {
		return nil, err
	}
	return m.store.ListFilesInFolder(ctx, folderID)
}

// ListFilesInFolderForShare lists a folder for an anonymous visitor. The
// folder must be public or tok must be a temporary token bound to it.
func (m *Manager) ListFilesInFolderForShare(ctx context.Context, folderID int64, tok string) ([]models.FileRecord, error) {
	f, err := m.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !f.IsPublic {
		rec, err := m.tokens.Peek(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("list shared folder %d: %w", folderID, models.ErrPermissionDenied)
		}
		if !rec.BoundTo(models.ItemFolder, folderID) {
			return nil, fmt.Errorf("token bound to another resource: %w", models.ErrPermissionDenied)
		}
	}
	return m.store.ListFilesInFolder(ctx, folderID)
}

// loadManaged loads a folder and checks the actor may manage its grants.
func (m *Manager) loadManaged(ctx context.Context, actor models.Actor, folderID int64) (*models.Folder, error) {
	f, err := m.store.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageGrants(actor, f) {
		return nil, fmt.Errorf("manage grants on folder %d: %w", folderID, models.ErrPermissionDenied)
	}
	return f, nil
}

// GrantPermission upserts the single active grant for (folder, user). An
// existing row keeps its CreateSubfolder flag.
func (m *Manager) GrantPermission(ctx context.Context, actor models.Actor, g models.Grant) (*models.FolderPermission, error) {
	f, err := m.loadManaged(ctx, actor, g.FolderID)
	if err != nil {
		return nil, err
	}
	if _, err := m.store.GetUser(ctx, g.UserID); err != nil {
		return nil, err
	}
	p, err := m.store.UpsertGrant(ctx, g, actor.UserID, m.now().UTC(), false)
	if err != nil {
		return nil, err
	}
	m.publishGrant(ctx, actor, f, p)
	return p, nil
}

// GrantPermissionsBatch applies all grants in one transaction, setting all
// four flags. One unauthorised entry fails the whole batch.
func (m *Manager) GrantPermissionsBatch(ctx context.Context, actor models.Actor, grants []models.Grant) ([]models.FolderPermission, error) {
	if len(grants) == 0 {
		return []models.FolderPermission{}, nil
	}
	folders := make(map[int64]*models.Folder)
	checkedUsers := make(map[int64]bool)
	for _, g := range grants {
		if _, ok := folders[g.FolderID]; !ok {
			f, err := m.loadManaged(ctx, actor, g.FolderID)
			if err != nil {
				return nil, err
			}
			folders[g.FolderID] = f
		}
		if !checkedUsers[g.UserID] {
			if _, err := m.store.GetUser(ctx, g.UserID); err != nil {
				return nil, err
			}
			checkedUsers[g.UserID] = true
		}
	}

	out, err := m.store.UpsertGrants(ctx, grants, actor.UserID, m.now().UTC())
	if err != nil {
		return nil, err
	}
	for i := range out {
		m.publishGrant(ctx, actor, folders[out[i].FolderID], &out[i])
	}
	return out, nil
}

// RevokePermission soft-deletes the active grant. It returns false, not an
// error, when there was nothing to revoke.
func (m *Manager) RevokePermission(ctx context.Context, actor models.Actor, folderID, userID int64) (bool, error) {
	f, err := m.loadManaged(ctx, actor, folderID)
	if err != nil {
		return false, err
	}
	ok, err := m.store.RevokeGrant(ctx, folderID, userID, m.now().UTC())
	if err != nil || !ok {
		return false, err
	}
	m.publish(ctx, actor, audit.EventTypePermissionRevoked, f, map[string]interface{}{"user_id": userID})
	return true, nil
}

// RevokePermissionsBatch revokes several grants in one transaction and
// returns how many were active.
func (m *Manager) RevokePermissionsBatch(ctx context.Context, actor models.Actor, targets []models.GrantTarget) (int64, error) {
	folders := make(map[int64]*models.Folder)
	for _, t := range targets {
		if _, ok := folders[t.FolderID]; ok {
			continue
		}
		f, err := m.loadManaged(ctx, actor, t.FolderID)
		if err != nil {
			return 0, err
		}
		folders[t.FolderID] = f
	}
	n, err := m.store.RevokeGrants(ctx, targets, m.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		for _, t := range targets {
			m.publish(ctx, actor, audit.EventTypePermissionRevoked, folders[t.FolderID], map[string]interface{}{"user_id": t.UserID})
		}
	}
	return n, nil
}

// ListFolderPermissions lists the active grants of a folder. Only its
// creator or an Admin may see them.
func (m *Manager) ListFolderPermissions(ctx context.Context, actor models.Actor, folderID int64) ([]models.FolderPermission, error) {
	if _, err := m.loadManaged(ctx, actor, folderID); err != nil {
		return nil, err
	}
	return m.store.ListFolderGrants(ctx, folderID)
}

func (m *Manager) publishGrant(ctx context.Context, actor models.Actor, f *models.Folder, p *models.FolderPermission) {
	m.publish(ctx, actor, audit.EventTypePermissionGranted, f, map[string]interface{}{
		"user_id":              p.UserID,
		"can_read":             p.CanRead,
		"can_upload":           p.CanUpload,
		"can_delete":           p.CanDelete,
		"can_create_subfolder": p.CanCreateSubfolder,
	})
}

func (m *Manager) publish(ctx context.Context, actor models.Actor, t events.Type, f *models.Folder, details map[string]interface{}) {
	m.events.Publish(ctx, events.Event{
		Type:       t,
		Success:    true,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		TargetID:   f.ID,
		TargetType: "folder",
		TargetName: f.Name,
		Details:    details,
	})
}
