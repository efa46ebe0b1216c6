// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package settings owns the singleton system settings row.
package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/cache"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/models"
)

// Store persists the settings row.
type Store interface {
	EnsureSettings(ctx context.Context, defaults models.SystemSettings, at time.Time) error
	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	UpdateSettings(ctx context.Context, s *models.SystemSettings) error
}

// Service reads and updates system settings. Reads are served from a
// short-lived cache because the upload path consults them on every file.
type Service struct {
	store  Store
	cache  *cache.Cache
	events events.Publisher
	now    func() time.Time
}

// NewService creates a Service. c may be nil to disable caching.
func NewService(store Store, c *cache.Cache, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{store: store, cache: c, events: pub, now: time.Now}
}

// Init writes the default row on first start. Existing settings are kept.
func (s *Service) Init(ctx context.Context) error {
	if err := s.store.EnsureSettings(ctx, models.DefaultSystemSettings(), s.now().UTC()); err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	return nil
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (models.SystemSettings, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(cache.KeySettings); ok {
			return v.(models.SystemSettings), nil
		}
	}

	cur, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.SystemSettings{}, err
	}
	if s.cache != nil {
		s.cache.Set(cache.KeySettings, *cur)
	}
	return *cur, nil
}

// Update replaces the settings. Admin only.
func (s *Service) Update(ctx context.Context, actor models.Actor, next models.SystemSettings) (models.SystemSettings, error) {
	if !actor.IsAdmin() {
		return models.SystemSettings{}, fmt.Errorf("update settings: %w", models.ErrPermissionDenied)
	}
	if err := validate(&next); err != nil {
		return models.SystemSettings{}, err
	}

	prev, err := s.Get(ctx)
	if err != nil {
		return models.SystemSettings{}, err
	}

	next.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateSettings(ctx, &next); err != nil {
		return models.SystemSettings{}, err
	}
	if s.cache != nil {
		s.cache.Delete(cache.KeySettings)
	}

	s.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeSettingsChanged,
		OccurredAt: next.UpdatedAt,
		Success:    true,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		TargetType: "settings",
		TargetName: "system",
		Details:    diff(prev, next),
	})
	return next, nil
}

func validate(s *models.SystemSettings) error {
	s.SiteName = strings.TrimSpace(s.SiteName)
	switch {
	case s.SiteName == "":
		return fmt.Errorf("%w: site name is required", models.ErrValidation)
	case s.MaxFileSizeMB <= 0:
		return fmt.Errorf("%w: max file size must be positive", models.ErrValidation)
	case s.StorageLimitMB <= 0:
		return fmt.Errorf("%w: storage limit must be positive", models.ErrValidation)
	case s.MaxFileSizeMB > s.StorageLimitMB:
		return fmt.Errorf("%w: max file size exceeds storage limit", models.ErrValidation)
	}
	if s.DefaultLanguage == "" {
		s.DefaultLanguage = models.DefaultSystemSettings().DefaultLanguage
	}
	if s.FileStoragePath == "" {
		s.FileStoragePath = models.DefaultSystemSettings().FileStoragePath
	}
	return nil
}

// diff lists the fields that changed, for the audit trail.
func diff(prev, next models.SystemSettings) map[string]interface{} {
	changed := map[string]interface{}{}
	add := func(name string, a, b interface{}) {
		if a != b {
			changed[name] = map[string]interface{}{"from": a, "to": b}
		}
	}
	add("default_language", prev.DefaultLanguage, next.DefaultLanguage)
	add("site_name", prev.SiteName, next.SiteName)
	add("login_logo_path", prev.LoginLogoPath, next.LoginLogoPath)
	add("home_logo_path", prev.HomeLogoPath, next.HomeLogoPath)
	add("max_file_size_mb", prev.MaxFileSizeMB, next.MaxFileSizeMB)
	add("storage_limit_mb", prev.StorageLimitMB, next.StorageLimitMB)
	add("file_storage_path", prev.FileStoragePath, next.FileStoragePath)
	return changed
}
