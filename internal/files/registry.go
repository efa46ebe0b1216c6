// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package files is the file registry: upload preparation and completion,
// path resolution for downloads, deletion and search. Access checks are
// delegated to the permission engine.
//
// A file moves Pending -> Complete -> deleted. A Pending file whose bytes
// never arrive is an orphan and is reclaimed by the Sweeper.
package files

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

const (
	maxStorageNameAttempts = 5
	maxStemRunes           = 64
)

// Store is the file and folder persistence the registry needs.
type Store interface {
	CreateFile(ctx context.Context, f *models.FileRecord) error
	GetFile(ctx context.Context, id int64) (*models.FileRecord, error)
	MarkFileComplete(ctx context.Context, id, size int64, at time.Time) error
	SoftDeleteFile(ctx context.Context, id int64, at time.Time) error
	SearchFolders(ctx context.Context, query string, scope []int64) ([]models.FolderSummary, error)
	SearchFiles(ctx context.Context, query string, scope []int64) ([]models.FileRecord, error)
	DescendantFolderIDs(ctx context.Context, rootID int64) ([]int64, error)
}

// Blobs is the physical file store.
type Blobs interface {
	Write(folderID int64, storageName string, r io.Reader) (int64, error)
	FilePath(folderID int64, storageName string) (string, error)
	Exists(folderID int64, storageName string) bool
	Remove(folderID int64, storageName string) error

	StageChunk(fileID int64, index int, r io.Reader) (int64, error)
	StagedBytes(fileID int64, except int) (int64, error)
	ChunksComplete(fileID int64, total int) bool
	ChunkReader(fileID int64, total int) (io.ReadCloser, error)
	DiscardChunks(fileID int64) error
}

// Permissions is the permission engine.
type Permissions interface {
	Require(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) error
}

// Settings supplies the upload size limit.
type Settings interface {
	Get(ctx context.Context) (models.SystemSettings, error)
}

// Tokens issues and validates temporary download tokens.
type Tokens interface {
	Create(ctx context.Context, resourceType models.ItemType, resourceID, userID int64, ttl time.Duration) (string, error)
	Validate(ctx context.Context, tok string) (*models.TemporaryToken, error)
}

// PrepareInput describes a file about to be uploaded.
type PrepareInput struct {
	FolderID     int64
	OriginalName string
	Size         int64
	Extension    string
	Description  string
}

// Registry implements the file operations.
type Registry struct {
	store       Store
	blobs       Blobs
	perms       Permissions
	settings    Settings
	tokens      Tokens
	events      events.Publisher
	searchScope string
	random      io.Reader
	now         func() time.Time
}

// NewRegistry creates a Registry. searchScope is config.SearchScopeFolder or
// config.SearchScopeGlobal.
func NewRegistry(store Store, blobs Blobs, perms Permissions, settings Settings, tokens Tokens, pub events.Publisher, searchScope string) *Registry {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if searchScope == "" {
		searchScope = config.SearchScopeFolder
	}
	return &Registry{
		store:       store,
		blobs:       blobs,
		perms:       perms,
		settings:    settings,
		tokens:      tokens,
		events:      pub,
		searchScope: searchScope,
		random:      rand.Reader,
		now:         time.Now,
	}
}

// PrepareUpload reserves a Pending record with a fresh storage name. It
// needs Upload on the folder and rejects files above the configured limit.
func (r *Registry) PrepareUpload(ctx context.Context, actor models.Actor, in PrepareInput) (*models.FileRecord, error) {
	name := strings.TrimSpace(in.OriginalName)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return nil, fmt.Errorf("%w: invalid file name %q", models.ErrValidation, in.OriginalName)
	}
	if in.Size < 0 {
		return nil, fmt.Errorf("%w: negative file size", models.ErrValidation)
	}
	if err := r.perms.Require(ctx, actor, in.FolderID, models.CapUpload); err != nil {
		return nil, err
	}

	s, err := r.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if limit := s.MaxFileSizeBytes(); limit > 0 && in.Size > limit {
		return nil, fmt.Errorf("%w: file exceeds the %d MB limit", models.ErrValidation, s.MaxFileSizeMB)
	}

	ext := in.Extension
	if ext == "" {
		ext = filepath.Ext(name)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	rec := &models.FileRecord{
		OriginalName: name,
		Size:         in.Size,
		Extension:    strings.ToLower(ext),
		FolderID:     in.FolderID,
		UploaderID:   actor.UserID,
		Description:  in.Description,
		UploadedAt:   r.now().UTC(),
	}
	for attempt := 1; ; attempt++ {
		if rec.StorageName, err = r.storageName(name, ext); err != nil {
			return nil, err
		}
		err = r.store.CreateFile(ctx, rec)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConflict) || attempt == maxStorageNameAttempts {
			return nil, fmt.Errorf("prepare upload: %w", err)
		}
	}

	logging.Ctx(ctx).Debug().
		Int64("file_id", rec.ID).
		Int64("folder_id", rec.FolderID).
		Str("storage_name", rec.StorageName).
		Msg("Prepared upload")
	return rec, nil
}

// storageName builds stem_unixmillis_random.ext. The stem keeps the
// original name readable on disk; the time and random parts make it unique.
func (r *Registry) storageName(name, ext string) (string, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.Map(func(c rune) rune {
		switch {
		case c < 0x20, c == '/', c == '\\', c == ':', c == '*', c == '?', c == '"', c == '<', c == '>', c == '|':
			return '_'
		}
		return c
	}, stem)
	stem = strings.TrimLeft(stem, ".")
	if utf8.RuneCountInString(stem) > maxStemRunes {
		stem = string([]rune(stem)[:maxStemRunes])
	}
	if stem == "" {
		stem = "file"
	}

	b := make([]byte, 4)
	if _, err := io.ReadFull(r.random, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return stem + "_" + strconv.FormatInt(r.now().UnixMilli(), 10) + "_" + hex.EncodeToString(b) + strings.ToLower(ext), nil
}

// CompleteUpload writes the bytes of a prepared file and marks it Complete.
// There is no permission check: the file id was issued under PrepareUpload's
// authorization. Any failure, including content above the size limit,
// returns false.
func (r *Registry) CompleteUpload(ctx context.Context, fileID int64, data io.Reader) bool {
	return r.complete(ctx, fileID, data) == nil
}

// errTooLarge marks content cut off at the upload size limit.
var errTooLarge = fmt.Errorf("%w: file exceeds the upload size limit", models.ErrValidation)

func (r *Registry) complete(ctx context.Context, fileID int64, data io.Reader) error {
	log := logging.Ctx(ctx)
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		log.Warn().Err(err).Int64("file_id", fileID).Msg("Complete upload for unknown file")
		return err
	}
	if rec.State != models.FileStatePending {
		log.Warn().Int64("file_id", fileID).Str("state", rec.State.String()).Msg("Complete upload for a file that is not pending")
		return fmt.Errorf("%w: file %d is already complete", models.ErrConflict, fileID)
	}
	limit, err := r.uploadLimit(ctx)
	if err != nil {
		return err
	}
	if limit >= 0 {
		// one byte past the limit is enough to know it was exceeded
		data = io.LimitReader(data, limit+1)
	}

	n, err := r.blobs.Write(rec.FolderID, rec.StorageName, data)
	if err != nil {
		log.Error().Err(err).Int64("file_id", fileID).Msg("Failed to write upload")
		metrics.RecordUpload(0, err)
		return fmt.Errorf("write file %d: %w", fileID, models.ErrIOFailure)
	}
	if limit >= 0 && n > limit {
		log.Warn().Int64("file_id", fileID).Int64("limit", limit).Msg("Upload exceeds the size limit")
		if rmErr := r.blobs.Remove(rec.FolderID, rec.StorageName); rmErr != nil {
			log.Warn().Err(rmErr).Int64("file_id", fileID).Msg("Failed to remove bytes of oversized upload")
		}
		metrics.RecordUpload(0, errTooLarge)
		return errTooLarge
	}
	if err := r.store.MarkFileComplete(ctx, fileID, n, r.now().UTC()); err != nil {
		log.Error().Err(err).Int64("file_id", fileID).Msg("Failed to mark upload complete")
		if rmErr := r.blobs.Remove(rec.FolderID, rec.StorageName); rmErr != nil {
			log.Warn().Err(rmErr).Int64("file_id", fileID).Msg("Failed to remove bytes of failed upload")
		}
		metrics.RecordUpload(0, err)
		return fmt.Errorf("complete file %d: %w", fileID, models.ErrIOFailure)
	}

	r.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeFileUpload,
		Success:    true,
		ActorID:    rec.UploaderID,
		TargetID:   rec.ID,
		TargetType: "file",
		TargetName: rec.OriginalName,
		Details:    map[string]interface{}{"size": n, "folder_id": rec.FolderID},
	})
	return nil
}

// uploadLimit is the configured per-file byte limit, or -1 when unlimited.
func (r *Registry) uploadLimit(ctx context.Context) (int64, error) {
	s, err := r.settings.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	if limit := s.MaxFileSizeBytes(); limit > 0 {
		return limit, nil
	}
	return -1, nil
}

// GetPathAndName returns the on-disk path and original name of a file the
// actor may read. The bytes must exist: a record without them is an
// models.ErrIOFailure.
func (r *Registry) GetPathAndName(ctx context.Context, actor models.Actor, fileID int64) (string, string, error) {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return "", "", err
	}
	if err := r.perms.Require(ctx, actor, rec.FolderID, models.CapRead); err != nil {
		return "", "", err
	}
	return r.locate(rec)
}

// GetPathAndNameUnchecked is GetPathAndName without the permission check.
// Only call it behind a validated share or temporary token.
func (r *Registry) GetPathAndNameUnchecked(ctx context.Context, fileID int64) (string, string, error) {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return "", "", err
	}
	return r.locate(rec)
}

func (r *Registry) locate(rec *models.FileRecord) (string, string, error) {
	if rec.State != models.FileStateComplete || !r.blobs.Exists(rec.FolderID, rec.StorageName) {
		return "", "", fmt.Errorf("file %d has no stored bytes: %w", rec.ID, models.ErrIOFailure)
	}
	p, err := r.blobs.FilePath(rec.FolderID, rec.StorageName)
	if err != nil {
		return "", "", err
	}
	return p, rec.OriginalName, nil
}

// DeleteFile soft-deletes a file and removes its bytes. It needs the Delete
// capability on the owning folder. Removing the bytes is best effort.
func (r *Registry) DeleteFile(ctx context.Context, actor models.Actor, fileID int64) error {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := r.perms.Require(ctx, actor, rec.FolderID, models.CapDelete); err != nil {
		return err
	}
	if err := r.store.SoftDeleteFile(ctx, fileID, r.now().UTC()); err != nil {
		return err
	}
	if err := r.blobs.Remove(rec.FolderID, rec.StorageName); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("file_id", fileID).Msg("Failed to remove file bytes")
	}

	r.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeFileDelete,
		Success:    true,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		TargetID:   rec.ID,
		TargetType: "file",
		TargetName: rec.OriginalName,
		Details:    map[string]interface{}{"folder_id": rec.FolderID},
	})
	return nil
}

// Search matches query against folder and file names and descriptions. The
// actor needs Read on folderID. In folder scope only folderID and the
// descendants the actor can read are searched, and searching from the root
// covers every top-level tree. In global scope everything is searched.
func (r *Registry) Search(ctx context.Context, actor models.Actor, query string, folderID int64) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", models.ErrValidation)
	}
	if err := r.perms.Require(ctx, actor, folderID, models.CapRead); err != nil {
		return nil, err
	}

	var scope []int64
	if r.searchScope == config.SearchScopeFolder {
		ids, err := r.store.DescendantFolderIDs(ctx, folderID)
		if err != nil {
			return nil, err
		}
		if scope, err = r.readable(ctx, actor, ids); err != nil {
			return nil, err
		}
		if len(scope) == 0 {
			return &models.SearchResult{Folders: []models.FolderSummary{}, Files: []models.FileRecord{}}, nil
		}
	}

	folders, err := r.store.SearchFolders(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	fileHits, err := r.store.SearchFiles(ctx, query, scope)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{Folders: folders, Files: fileHits}, nil
}

// readable keeps the folders of ids the actor holds Read on.
func (r *Registry) readable(ctx context.Context, actor models.Actor, ids []int64) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		err := r.perms.Require(ctx, actor, id, models.CapRead)
		if errors.Is(err, models.ErrPermissionDenied) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
