// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package folders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/models"
	"github.com/tomtom215/squadfile/internal/permission"
	"github.com/tomtom215/squadfile/internal/storage"
	"github.com/tomtom215/squadfile/internal/token"
)

type fixture struct {
	db     *database.DB
	disk   *storage.Disk
	engine *permission.Engine
	tokens *token.Store
	mgr    *Manager
	rec    *events.Recorder
	admin  models.Actor
	alice  models.Actor
	bob    models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := database.New(&config.DatabaseConfig{Path: filepath.Join(dir, "folders.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	disk, err := storage.NewDisk(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	tokens, err := token.Open(config.TokensConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tokens.Close() })

	f := &fixture{db: db, disk: disk, tokens: tokens, rec: &events.Recorder{}}
	mk := func(name string, role models.Role) models.Actor {
		u := &models.User{Username: name, PasswordHash: "x", Role: role}
		if err := db.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
		return models.ActorFromUser(u)
	}
	f.admin = mk("admin", models.RoleAdmin)
	f.alice = mk("alice", models.RoleNormal)
	f.bob = mk("bob", models.RoleNormal)

	f.engine = permission.NewEngine(db, db, db)
	f.mgr = NewManager(db, disk, f.engine, tokens, f.rec)
	return f
}

func (f *fixture) mustCreate(t *testing.T, actor models.Actor, in CreateInput) *models.Folder {
	t.Helper()
	folder, err := f.mgr.CreateFolder(context.Background(), actor, in)
	if err != nil {
		t.Fatalf("CreateFolder(%+v) error = %v", in, err)
	}
	return folder
}

func TestCreateFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.mgr.CreateFolder(ctx, f.alice, CreateInput{Name: "Team"}); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("non-admin root folder error = %v", err)
	}
	if _, err := f.mgr.CreateFolder(ctx, models.Anonymous, CreateInput{Name: "Team"}); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("anonymous error = %v", err)
	}
	if _, err := f.mgr.CreateFolder(ctx, f.admin, CreateInput{Name: "  "}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank name error = %v", err)
	}

	root := f.mustCreate(t, f.admin, CreateInput{Name: " Team ", Description: "shared"})
	if root.Name != "Team" || root.CreatorID != f.admin.UserID {
		t.Errorf("root = %+v", root)
	}
	if _, err := os.Stat(f.disk.FolderDir(root.ID)); err != nil {
		t.Errorf("folder directory not provisioned: %v", err)
	}

	// sub-folder needs CreateSubfolder on the parent
	if _, err := f.mgr.CreateFolder(ctx, f.alice, CreateInput{Name: "Sub", ParentID: root.ID}); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("sub-folder without grant error = %v", err)
	}
	if _, err := f.mgr.GrantPermissionsBatch(ctx, f.admin, []models.Grant{{FolderID: root.ID, UserID: f.alice.UserID,
		Capabilities: models.Capabilities{CanRead: true, CanCreateSubfolder: true}}}); err != nil {
		t.Fatal(err)
	}
	sub := f.mustCreate(t, f.alice, CreateInput{Name: "Sub", ParentID: root.ID})
	if sub.ParentID != root.ID || sub.CreatorID != f.alice.UserID {
		t.Errorf("sub = %+v", sub)
	}
	if n := len(f.rec.OfType(audit.EventTypeFolderCreated)); n != 2 {
		t.Errorf("folder.created events = %d, want 2", n)
	}
}

func TestUpdateFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})
	name := "Renamed"
	public := true

	if _, err := f.mgr.UpdateFolder(ctx, f.alice, root.ID, models.FolderUpdate{Name: &name}); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("update without Delete tier error = %v", err)
	}
	// read grant is not enough
	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: root.ID, UserID: f.alice.UserID,
		Capabilities: models.Capabilities{CanRead: true, CanUpload: true}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.mgr.UpdateFolder(ctx, f.alice, root.ID, models.FolderUpdate{Name: &name}); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("update with read/upload grant error = %v", err)
	}
	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: root.ID, UserID: f.alice.UserID,
		Capabilities: models.Capabilities{CanRead: true, CanDelete: true}}); err != nil {
		t.Fatal(err)
	}
	got, err := f.mgr.UpdateFolder(ctx, f.alice, root.ID, models.FolderUpdate{Name: &name, IsPublic: &public})
	if err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}
	if got.Name != "Renamed" || !got.IsPublic {
		t.Errorf("updated = %+v", got)
	}
}

func TestDeleteFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})
	file := &models.FileRecord{OriginalName: "a.txt", StorageName: "a_1_x.txt", FolderID: root.ID, UploaderID: f.admin.UserID}
	if err := f.db.CreateFile(ctx, file); err != nil {
		t.Fatal(err)
	}

	if err := f.mgr.DeleteFolder(ctx, f.bob, root.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("bob DeleteFolder() error = %v", err)
	}
	if err := f.mgr.DeleteFolder(ctx, f.admin, root.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}
	if _, err := f.db.GetFile(ctx, file.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("file survived folder delete: %v", err)
	}
	if _, err := os.Stat(f.disk.FolderDir(root.ID)); !os.IsNotExist(err) {
		t.Errorf("folder directory still present: %v", err)
	}
	// the folder no longer resolves for anyone but admins
	if f.engine.HasPermission(ctx, root.ID, f.admin.UserID, models.CapRead) != true {
		t.Error("admin bypass should still hold")
	}
	if f.engine.HasPermission(ctx, root.ID, f.alice.UserID, models.CapRead) {
		t.Error("deleted folder still readable")
	}
	if err := f.mgr.DeleteFolder(ctx, f.alice, root.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("second delete error = %v", err)
	}
	ev := f.rec.OfType(audit.EventTypeFolderDeleted)
	if len(ev) != 1 || ev[0].Details["files_deleted"] != int64(1) {
		t.Errorf("folder.deleted events = %+v", ev)
	}
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})
	pub := f.mustCreate(t, f.admin, CreateInput{Name: "Public", ParentID: root.ID, IsPublic: true})
	private := f.mustCreate(t, f.admin, CreateInput{Name: "Private", ParentID: root.ID})

	list, err := f.mgr.ListAccessibleFolders(ctx, f.bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != pub.ID {
		t.Errorf("bob sees %+v, want only the public sub-folder", list)
	}

	if _, err := f.mgr.GetChildFolders(ctx, f.bob, root.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("bob children of root error = %v", err)
	}
	children, err := f.mgr.GetChildFolders(ctx, f.admin, root.ID)
	if err != nil || len(children) != 2 {
		t.Errorf("admin children = %+v, %v", children, err)
	}

	if _, err := f.mgr.ListFilesInFolder(ctx, f.bob, private.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("bob files of private error = %v", err)
	}
	if _, err := f.mgr.ListFilesInFolder(ctx, f.bob, pub.ID); err != nil {
		t.Errorf("bob files of public error = %v", err)
	}
}

func TestListFilesInFolderForShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})
	pub := f.mustCreate(t, f.admin, CreateInput{Name: "Public", ParentID: root.ID, IsPublic: true})

	if _, err := f.mgr.ListFilesInFolderForShare(ctx, pub.ID, ""); err != nil {
		t.Errorf("public folder error = %v", err)
	}
	if _, err := f.mgr.ListFilesInFolderForShare(ctx, root.ID, ""); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("private folder without token error = %v", err)
	}
	tok, err := f.tokens.Create(ctx, models.ItemFolder, root.ID, 0, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.mgr.ListFilesInFolderForShare(ctx, root.ID, tok); err != nil {
		t.Errorf("bound token error = %v", err)
	}
	if _, err := f.mgr.ListFilesInFolderForShare(ctx, pub.ID+100, tok); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing folder error = %v", err)
	}
	other, _ := f.tokens.Create(ctx, models.ItemFolder, pub.ID, 0, 30*time.Second)
	if _, err := f.mgr.ListFilesInFolderForShare(ctx, root.ID, other); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("token for other folder error = %v", err)
	}
	// a file token whose id happens to equal the folder id
	fileTok, _ := f.tokens.Create(ctx, models.ItemFile, root.ID, 0, 30*time.Second)
	if _, err := f.mgr.ListFilesInFolderForShare(ctx, root.ID, fileTok); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("file token listing folder with the same id error = %v", err)
	}
}

func TestListFilesInFolderForShare_SingleUseKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})

	single, err := token.Open(config.TokensConfig{SingleUse: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = single.Close() })
	mgr := NewManager(f.db, f.disk, f.engine, single, f.rec)

	tok, err := single.Create(ctx, models.ItemFolder, root.ID, 0, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := mgr.ListFilesInFolderForShare(ctx, root.ID, tok); err != nil {
			t.Fatalf("listing %d error = %v", i, err)
		}
	}
	if _, err := single.Validate(ctx, tok); err != nil {
		t.Errorf("folder token unusable after listings: %v", err)
	}
}

func TestGrantScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.mustCreate(t, f.admin, CreateInput{Name: "Five"})

	if f.engine.HasPermission(ctx, folder.ID, f.bob.UserID, models.CapRead) {
		t.Fatal("bob can read before any grant")
	}
	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: folder.ID, UserID: f.bob.UserID,
		Capabilities: models.Capabilities{CanRead: true}}); err != nil {
		t.Fatal(err)
	}
	if !f.engine.HasPermission(ctx, folder.ID, f.bob.UserID, models.CapRead) {
		t.Error("bob cannot read after read grant")
	}
	if f.engine.HasPermission(ctx, folder.ID, f.bob.UserID, models.CapUpload) {
		t.Error("bob can upload with read-only grant")
	}
}

func TestGrantAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})
	g := models.Grant{FolderID: folder.ID, UserID: f.bob.UserID, Capabilities: models.Capabilities{CanRead: true}}

	if _, err := f.mgr.GrantPermission(ctx, f.alice, g); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("non-owner grant error = %v", err)
	}
	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: folder.ID, UserID: 999}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("grant to unknown user error = %v", err)
	}
	if _, err := f.mgr.ListFolderPermissions(ctx, f.bob, folder.ID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("non-owner list error = %v", err)
	}

	// one bad entry fails the whole batch
	other := f.mustCreate(t, f.admin, CreateInput{Name: "Other"})
	_, err := f.mgr.GrantPermissionsBatch(ctx, f.admin, []models.Grant{g, {FolderID: other.ID, UserID: 999}})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("batch with unknown user error = %v", err)
	}
	perms, err := f.mgr.ListFolderPermissions(ctx, f.admin, folder.ID)
	if err != nil || len(perms) != 0 {
		t.Errorf("failed batch left grants behind: %+v, %v", perms, err)
	}
}

func TestGrantKeepsCreateSubfolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})

	if _, err := f.mgr.GrantPermissionsBatch(ctx, f.admin, []models.Grant{{FolderID: folder.ID, UserID: f.bob.UserID,
		Capabilities: models.Capabilities{CanRead: true, CanCreateSubfolder: true}}}); err != nil {
		t.Fatal(err)
	}
	p, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: folder.ID, UserID: f.bob.UserID,
		Capabilities: models.Capabilities{CanUpload: true}})
	if err != nil {
		t.Fatal(err)
	}
	if !p.CanUpload || p.CanRead || !p.CanCreateSubfolder {
		t.Errorf("grant after single upsert = %+v", p.Capabilities)
	}

	perms, err := f.mgr.ListFolderPermissions(ctx, f.admin, folder.ID)
	if err != nil || len(perms) != 1 || perms[0].Username != "bob" {
		t.Errorf("permissions = %+v, %v", perms, err)
	}
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.mustCreate(t, f.admin, CreateInput{Name: "Team"})

	ok, err := f.mgr.RevokePermission(ctx, f.admin, folder.ID, f.bob.UserID)
	if err != nil || ok {
		t.Errorf("revoke nothing = %v, %v; want false, nil", ok, err)
	}
	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: folder.ID, UserID: f.bob.UserID,
		Capabilities: models.Capabilities{CanRead: true}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.mgr.RevokePermission(ctx, f.alice, folder.ID, f.bob.UserID); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("non-owner revoke error = %v", err)
	}
	ok, err = f.mgr.RevokePermission(ctx, f.admin, folder.ID, f.bob.UserID)
	if err != nil || !ok {
		t.Errorf("revoke = %v, %v; want true, nil", ok, err)
	}
	ok, _ = f.mgr.RevokePermission(ctx, f.admin, folder.ID, f.bob.UserID)
	if ok {
		t.Error("second revoke reported a change")
	}

	if _, err := f.mgr.GrantPermission(ctx, f.admin, models.Grant{FolderID: folder.ID, UserID: f.alice.UserID,
		Capabilities: models.Capabilities{CanRead: true}}); err != nil {
		t.Fatal(err)
	}
	n, err := f.mgr.RevokePermissionsBatch(ctx, f.admin, []models.GrantTarget{
		{FolderID: folder.ID, UserID: f.alice.UserID},
		{FolderID: folder.ID, UserID: f.bob.UserID},
	})
	if err != nil || n != 1 {
		t.Errorf("batch revoke = %d, %v; want 1", n, err)
	}
}
