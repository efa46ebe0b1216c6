// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package stats builds the admin dashboard summary.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/squadfile/internal/cache"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

// LatestFilesLimit is the number of recent uploads on the dashboard.
const LatestFilesLimit = 10

// Store is the aggregate queries the dashboard reads.
type Store interface {
	CountUsers(ctx context.Context) (int, error)
	CountFolders(ctx context.Context) (int, error)
	FileTotals(ctx context.Context) (int, int64, error)
	CountActiveShares(ctx context.Context, now time.Time) (int, error)
	LatestFiles(ctx context.Context, limit int) ([]models.FileRecord, error)
	TypeDistribution(ctx context.Context) ([]models.TypeCount, error)
}

// Service serves AdminStats from a cache, rebuilding it when it expires.
type Service struct {
	store Store
	cache *cache.Cache
	now   func() time.Time
}

// NewService creates a Service. The cache TTL bounds staleness.
func NewService(store Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c, now: time.Now}
}

// AdminStats returns the dashboard summary. Admin only.
func (s *Service) AdminStats(ctx context.Context, actor models.Actor) (*models.AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin stats: %w", models.ErrPermissionDenied)
	}

	if v, ok := s.cache.Get(cache.KeyAdminStats); ok {
		metrics.RecordStatsCache(true)
		return v.(*models.AdminStats), nil
	}
	metrics.RecordStatsCache(false)

	st, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cache.KeyAdminStats, st)
	return st, nil
}

// Invalidate drops the cached summary.
func (s *Service) Invalidate() {
	s.cache.Delete(cache.KeyAdminStats)
}

func (s *Service) build(ctx context.Context) (*models.AdminStats, error) {
	now := s.now().UTC()
	st := &models.AdminStats{GeneratedAt: now}

	var err error
	if st.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if st.TotalFolders, err = s.store.CountFolders(ctx); err != nil {
		return nil, fmt.Errorf("count folders: %w", err)
	}
	if st.TotalFiles, st.TotalBytes, err = s.store.FileTotals(ctx); err != nil {
		return nil, fmt.Errorf("file totals: %w", err)
	}
	if st.ActiveShares, err = s.store.CountActiveShares(ctx, now); err != nil {
		return nil, fmt.Errorf("count shares: %w", err)
	}
	if st.LatestFiles, err = s.store.LatestFiles(ctx, LatestFilesLimit); err != nil {
		return nil, fmt.Errorf("latest files: %w", err)
	}
	if st.TypeDistribution, err = s.store.TypeDistribution(ctx); err != nil {
		return nil, fmt.Errorf("type distribution: %w", err)
	}
	if st.LatestFiles == nil {
		st.LatestFiles = []models.FileRecord{}
	}
	if st.TypeDistribution == nil {
		st.TypeDistribution = []models.TypeCount{}
	}
	return st, nil
}
