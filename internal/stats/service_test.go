// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package stats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/squadfile/internal/cache"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/models"
)

var admin = models.Actor{UserID: 1, Username: "admin", Role: models.RoleAdmin}

func newTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "stats.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := cache.New(30 * time.Second)
	t.Cleanup(c.Close)
	return NewService(db, c), db
}

func seed(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Username: "owner", PasswordHash: "x", Role: models.RoleNormal}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	folder := &models.Folder{Name: "Docs", CreatorID: u.ID}
	if err := db.CreateFolder(ctx, folder); err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"a.pdf", "b.pdf", "c.txt"} {
		f := &models.FileRecord{OriginalName: name, StorageName: name, Extension: filepath.Ext(name),
			FolderID: folder.ID, UploaderID: u.ID}
		if err := db.CreateFile(ctx, f); err != nil {
			t.Fatal(err)
		}
		if err := db.MarkFileComplete(ctx, f.ID, int64(100*(i+1)), time.Now()); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAdminStats(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db)

	st, err := svc.AdminStats(context.Background(), admin)
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if st.TotalUsers != 1 || st.TotalFolders != 1 {
		t.Errorf("users/folders = %d/%d, want 1/1", st.TotalUsers, st.TotalFolders)
	}
	if st.TotalFiles != 3 || st.TotalBytes != 600 {
		t.Errorf("files = %d (%d bytes), want 3 (600 bytes)", st.TotalFiles, st.TotalBytes)
	}
	if len(st.LatestFiles) != 3 {
		t.Errorf("latest files = %d, want 3", len(st.LatestFiles))
	}
	if len(st.TypeDistribution) != 2 {
		t.Errorf("type distribution = %+v, want pdf and txt", st.TypeDistribution)
	}
}

func TestAdminStatsCached(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.AdminStats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, db)

	second, err := svc.AdminStats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if second != first || second.TotalFiles != 0 {
		t.Errorf("second call rebuilt the summary: %+v", second)
	}

	svc.Invalidate()
	third, err := svc.AdminStats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if third.TotalFiles != 3 {
		t.Errorf("after invalidate TotalFiles = %d, want 3", third.TotalFiles)
	}
}

func TestAdminStatsRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)

	user := models.Actor{UserID: 2, Username: "alice", Role: models.RoleNormal}
	if _, err := svc.AdminStats(context.Background(), user); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("AdminStats() error = %v, want ErrPermissionDenied", err)
	}
}
