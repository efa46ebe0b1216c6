// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package files

import (
	"context"
	"fmt"
	"io"

	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

// maxChunks bounds the chunk count of one upload.
const maxChunks = 10000

// ChunkResult reports the state of a chunked upload after one chunk.
type ChunkResult struct {
	FileID    int64 `json:"file_id"`
	Index     int   `json:"index"`
	Total     int   `json:"total"`
	Completed bool  `json:"completed"`
}

// UploadContent writes the whole body of a prepared file in one request.
// Only the uploader may send it.
func (r *Registry) UploadContent(ctx context.Context, actor models.Actor, fileID int64, data io.Reader) (*models.FileRecord, error) {
	rec, err := r.pendingOwnedBy(ctx, actor, fileID)
	if err != nil {
		return nil, err
	}
	if err := r.complete(ctx, fileID, data); err != nil {
		return nil, err
	}
	return r.store.GetFile(ctx, rec.ID)
}

// UploadChunk stages chunk index of total for a Pending file. Only the
// uploader may send chunks. When the last missing chunk arrives the chunks
// are assembled and the upload completed.
func (r *Registry) UploadChunk(ctx context.Context, actor models.Actor, fileID int64, index, total int, data io.Reader) (*ChunkResult, error) {
	if total < 1 || total > maxChunks || index < 0 || index >= total {
		return nil, fmt.Errorf("%w: chunk %d of %d", models.ErrValidation, index, total)
	}
	if _, err := r.pendingOwnedBy(ctx, actor, fileID); err != nil {
		return nil, err
	}

	limit, err := r.uploadLimit(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		if _, err := r.blobs.StageChunk(fileID, index, data); err != nil {
			return nil, err
		}
	} else if err := r.stageWithin(ctx, fileID, index, data, limit); err != nil {
		return nil, err
	}
	res := &ChunkResult{FileID: fileID, Index: index, Total: total}
	if !r.blobs.ChunksComplete(fileID, total) {
		return res, nil
	}

	assembled, err := r.blobs.ChunkReader(fileID, total)
	if err != nil {
		return nil, err
	}
	err = r.complete(ctx, fileID, assembled)
	if cerr := assembled.Close(); cerr != nil {
		logging.Ctx(ctx).Warn().Err(cerr).Int64("file_id", fileID).Msg("Failed to close chunk reader")
	}
	if err != nil {
		return nil, fmt.Errorf("assemble file %d: %w", fileID, err)
	}
	if err := r.blobs.DiscardChunks(fileID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("file_id", fileID).Msg("Failed to discard staged chunks")
	}
	res.Completed = true
	return res, nil
}

// stageWithin stages one chunk so that all staged chunks together stay
// within limit bytes. Going over drops the whole staged upload.
func (r *Registry) stageWithin(ctx context.Context, fileID int64, index int, data io.Reader, limit int64) error {
	staged, err := r.blobs.StagedBytes(fileID, index)
	if err != nil {
		return err
	}
	remaining := limit - staged
	if remaining < 0 {
		remaining = 0
	}
	n, err := r.blobs.StageChunk(fileID, index, io.LimitReader(data, remaining+1))
	if err != nil {
		return err
	}
	if n > remaining {
		if err := r.blobs.DiscardChunks(fileID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("file_id", fileID).Msg("Failed to discard oversized chunks")
		}
		return errTooLarge
	}
	return nil
}

func (r *Registry) pendingOwnedBy(ctx context.Context, actor models.Actor, fileID int64) (*models.FileRecord, error) {
	rec, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.UploaderID != actor.UserID || actor.IsAnonymous() {
		return nil, fmt.Errorf("upload to file %d: %w", fileID, models.ErrPermissionDenied)
	}
	if rec.State != models.FileStatePending {
		return nil, fmt.Errorf("%w: file %d is already complete", models.ErrConflict, fileID)
	}
	return rec, nil
}
