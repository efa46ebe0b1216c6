// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package files

import (
	"context"
	"time"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

const sweepBatch = 100

// PendingStore finds and removes abandoned uploads.
type PendingStore interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.FileRecord, error)
	SoftDeleteFile(ctx context.Context, id int64, at time.Time) error
}

// Sweeper soft-deletes Pending files older than a TTL and removes whatever
// bytes or chunks they left behind. It implements suture.Service.
type Sweeper struct {
	store    PendingStore
	blobs    Blobs
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(store PendingStore, blobs Blobs, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, blobs: blobs, ttl: ttl, interval: interval, now: time.Now}
}

// Serve sweeps once at start and then every interval until ctx is done.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("Orphan sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String names the service in supervisor logs.
func (s *Sweeper) String() string {
	return "orphan-sweeper"
}

// SweepOnce reclaims every orphan older than the TTL and returns how many.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.ttl)
	swept := 0
	for {
		batch, err := s.store.ListPendingBefore(ctx, cutoff, sweepBatch)
		if err != nil {
			return swept, err
		}
		for _, f := range batch {
			if err := s.store.SoftDeleteFile(ctx, f.ID, now); err != nil {
				return swept, err
			}
			if err := s.blobs.Remove(f.FolderID, f.StorageName); err != nil {
				logging.Warn().Err(err).Int64("file_id", f.ID).Msg("Failed to remove orphan bytes")
			}
			if err := s.blobs.DiscardChunks(f.ID); err != nil {
				logging.Warn().Err(err).Int64("file_id", f.ID).Msg("Failed to remove orphan chunks")
			}
			swept++
		}
		if len(batch) < sweepBatch {
			break
		}
	}
	if swept > 0 {
		metrics.RecordOrphansSwept(swept)
		logging.Info().Int("count", swept).Dur("ttl", s.ttl).Msg("Swept orphaned uploads")
	}
	return swept, nil
}
