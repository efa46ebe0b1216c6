// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/cache"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/models"
)

var admin = models.Actor{UserID: 1, Username: "admin", Role: models.RoleAdmin}

func newTestService(t *testing.T) (*Service, *events.Recorder) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "settings.db")})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	rec := &events.Recorder{}
	svc := NewService(db, c, rec)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return svc, rec
}

func TestInitWritesDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := models.DefaultSystemSettings()
	if got.MaxFileSizeMB != want.MaxFileSizeMB || got.SiteName != want.SiteName {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestInitKeepsExisting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	s, _ := svc.Get(ctx)
	s.MaxFileSizeMB = 5
	if _, err := svc.Update(ctx, admin, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, _ := svc.Get(ctx)
	if got.MaxFileSizeMB != 5 {
		t.Errorf("MaxFileSizeMB = %d after re-init, want 5", got.MaxFileSizeMB)
	}
}

func TestUpdate(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	s, _ := svc.Get(ctx)
	s.SiteName = "  Team Drive "
	s.MaxFileSizeMB = 50

	got, err := svc.Update(ctx, admin, s)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.SiteName != "Team Drive" {
		t.Errorf("SiteName = %q, want trimmed", got.SiteName)
	}

	reread, _ := svc.Get(ctx)
	if reread.MaxFileSizeMB != 50 {
		t.Errorf("cached settings not invalidated: MaxFileSizeMB = %d", reread.MaxFileSizeMB)
	}

	evs := rec.OfType(audit.EventTypeSettingsChanged)
	if len(evs) != 1 {
		t.Fatalf("settings events = %d, want 1", len(evs))
	}
	if _, ok := evs[0].Details["max_file_size_mb"]; !ok {
		t.Errorf("details = %v, want max_file_size_mb change", evs[0].Details)
	}
	if _, ok := evs[0].Details["storage_limit_mb"]; ok {
		t.Error("unchanged field reported in details")
	}
}

func TestUpdateRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	s, _ := svc.Get(ctx)
	user := models.Actor{UserID: 2, Username: "alice", Role: models.RoleNormal}
	if _, err := svc.Update(ctx, user, s); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("Update() by user error = %v, want ErrPermissionDenied", err)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base, _ := svc.Get(ctx)

	tests := []struct {
		name   string
		mutate func(*models.SystemSettings)
	}{
		{"empty site name", func(s *models.SystemSettings) { s.SiteName = " " }},
		{"zero max size", func(s *models.SystemSettings) { s.MaxFileSizeMB = 0 }},
		{"negative storage limit", func(s *models.SystemSettings) { s.StorageLimitMB = -1 }},
		{"max above limit", func(s *models.SystemSettings) { s.MaxFileSizeMB = s.StorageLimitMB + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			if _, err := svc.Update(ctx, admin, s); !errors.Is(err, models.ErrValidation) {
				t.Errorf("Update() error = %v, want ErrValidation", err)
			}
		})
	}
}
