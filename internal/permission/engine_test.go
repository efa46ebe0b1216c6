// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package permission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/squadfile/internal/models"
)

type fakeStore struct {
	folders  map[int64]*models.Folder
	grants   map[[2]int64]*models.FolderPermission
	users    map[int64]*models.User
	failLoad bool
}

func (s *fakeStore) GetFolder(_ context.Context, id int64) (*models.Folder, error) {
	if s.failLoad {
		return nil, errors.New("database is locked")
	}
	f, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d: %w", id, models.ErrNotFound)
	}
	return f, nil
}

func (s *fakeStore) GetActiveGrant(_ context.Context, folderID, userID int64) (*models.FolderPermission, error) {
	g, ok := s.grants[[2]int64{folderID, userID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return g, nil
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

const (
	adminID   int64 = 1
	ownerID   int64 = 2
	readerID  int64 = 3
	uploadID  int64 = 4
	strangeID int64 = 5

	privateFolder int64 = 10
	publicFolder  int64 = 11
	deletedFolder int64 = 12
)

func newFixture() *fakeStore {
	deleted := time.Now()
	return &fakeStore{
		folders: map[int64]*models.Folder{
			privateFolder: {ID: privateFolder, CreatorID: ownerID},
			publicFolder:  {ID: publicFolder, CreatorID: ownerID, IsPublic: true, ParentID: privateFolder},
			deletedFolder: {ID: deletedFolder, CreatorID: ownerID, DeletedAt: &deleted},
		},
		grants: map[[2]int64]*models.FolderPermission{
			{privateFolder, readerID}: {Capabilities: models.Capabilities{CanRead: true}},
			{privateFolder, uploadID}: {Capabilities: models.Capabilities{CanUpload: true}},
		},
		users: map[int64]*models.User{
			adminID:   {ID: adminID, Role: models.RoleAdmin},
			ownerID:   {ID: ownerID, Role: models.RoleNormal},
			readerID:  {ID: readerID, Role: models.RoleNormal},
			uploadID:  {ID: uploadID, Role: models.RoleNormal},
			strangeID: {ID: strangeID, Role: models.RoleNormal},
		},
	}
}

func TestHasPermission(t *testing.T) {
	store := newFixture()
	e := NewEngine(store, store, store)
	ctx := context.Background()

	tests := []struct {
		name   string
		folder int64
		user   int64
		cap    models.Capability
		want   bool
	}{
		{"admin on private", privateFolder, adminID, models.CapDelete, true},
		{"admin on root", models.RootFolderID, adminID, models.CapCreateSubfolder, true},
		{"admin on missing folder", 999, adminID, models.CapRead, true},
		{"normal on root", models.RootFolderID, ownerID, models.CapCreateSubfolder, false},
		{"missing folder", 999, ownerID, models.CapRead, false},
		{"deleted folder even for creator", deletedFolder, ownerID, models.CapRead, false},
		{"public read for stranger", publicFolder, strangeID, models.CapRead, true},
		{"public never grants upload", publicFolder, strangeID, models.CapUpload, false},
		{"public never grants delete", publicFolder, strangeID, models.CapDelete, false},
		{"creator full control", privateFolder, ownerID, models.CapDelete, true},
		{"creator subfolder", privateFolder, ownerID, models.CapCreateSubfolder, true},
		{"read grant reads", privateFolder, readerID, models.CapRead, true},
		{"read grant cannot upload", privateFolder, readerID, models.CapUpload, false},
		{"upload implies read", privateFolder, uploadID, models.CapRead, true},
		{"upload grant uploads", privateFolder, uploadID, models.CapUpload, true},
		{"upload grant cannot delete", privateFolder, uploadID, models.CapDelete, false},
		{"no grant", privateFolder, strangeID, models.CapRead, false},
		{"unknown user", privateFolder, 404, models.CapRead, false},
		{"anonymous", publicFolder, 0, models.CapRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.HasPermission(ctx, tt.folder, tt.user, tt.cap); got != tt.want {
				t.Errorf("HasPermission(%d, %d, %s) = %v, want %v", tt.folder, tt.user, tt.cap, got, tt.want)
			}
		})
	}
}

func TestCheck_StoreErrorFailsClosed(t *testing.T) {
	store := newFixture()
	store.failLoad = true
	e := NewEngine(store, store, store)
	actor := models.Actor{UserID: ownerID, Role: models.RoleNormal}

	ok, err := e.Check(context.Background(), actor, privateFolder, models.CapRead)
	if ok || err == nil {
		t.Errorf("Check() = (%v, %v), want (false, error)", ok, err)
	}
	if e.HasPermission(context.Background(), privateFolder, ownerID, models.CapRead) {
		t.Error("HasPermission should deny on store error")
	}
}

func TestRequire(t *testing.T) {
	store := newFixture()
	e := NewEngine(store, store, store)
	ctx := context.Background()

	reader := models.Actor{UserID: readerID, Role: models.RoleNormal}
	if err := e.Require(ctx, reader, privateFolder, models.CapRead); err != nil {
		t.Errorf("Require(read) error = %v", err)
	}
	if err := e.Require(ctx, reader, privateFolder, models.CapDelete); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("Require(delete) error = %v, want ErrPermissionDenied", err)
	}
}

func TestCanManageGrants(t *testing.T) {
	folder := &models.Folder{ID: privateFolder, CreatorID: ownerID}
	tests := []struct {
		actor models.Actor
		want  bool
	}{
		{models.Actor{UserID: adminID, Role: models.RoleAdmin}, true},
		{models.Actor{UserID: ownerID, Role: models.RoleNormal}, true},
		// a delete grant does not confer grant management
		{models.Actor{UserID: readerID, Role: models.RoleNormal}, false},
		{models.Anonymous, false},
	}
	for _, tt := range tests {
		if got := CanManageGrants(tt.actor, folder); got != tt.want {
			t.Errorf("CanManageGrants(%+v) = %v, want %v", tt.actor, got, tt.want)
		}
	}
}
