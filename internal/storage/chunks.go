// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tomtom215/squadfile/internal/models"
)

func (d *Disk) chunkDir(fileID int64) string {
	return filepath.Join(d.root, chunkDirName, strconv.FormatInt(fileID, 10))
}

func (d *Disk) chunkPath(fileID int64, index int) string {
	return filepath.Join(d.chunkDir(fileID), fmt.Sprintf("%06d.chunk", index))
}

// StageChunk stores one chunk of an upload. Re-sending a chunk replaces it.
func (d *Disk) StageChunk(fileID int64, index int, r io.Reader) (int64, error) {
	if index < 0 {
		return 0, fmt.Errorf("%w: negative chunk index %d", models.ErrValidation, index)
	}
	if err := os.MkdirAll(d.chunkDir(fileID), 0o750); err != nil {
		return 0, fmt.Errorf("%w: create chunk dir: %v", models.ErrIOFailure, err)
	}

	f, err := os.Create(d.chunkPath(fileID, index))
	if err != nil {
		return 0, fmt.Errorf("%w: create chunk %d: %v", models.ErrIOFailure, index, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("%w: write chunk %d: %v", models.ErrIOFailure, index, err)
	}
	return n, nil
}

// StagedBytes sums the staged chunks of an upload, leaving out chunk
// except, which a re-send is about to replace.
func (d *Disk) StagedBytes(fileID int64, except int) (int64, error) {
	entries, err := os.ReadDir(d.chunkDir(fileID))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: list chunks of %d: %v", models.ErrIOFailure, fileID, err)
	}
	skip := filepath.Base(d.chunkPath(fileID, except))
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == skip {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, fmt.Errorf("%w: stat chunk %s: %v", models.ErrIOFailure, e.Name(), err)
		}
		total += info.Size()
	}
	return total, nil
}

// ChunksComplete reports whether chunks 0..total-1 are all staged.
func (d *Disk) ChunksComplete(fileID int64, total int) bool {
	for i := 0; i < total; i++ {
		if _, err := os.Stat(d.chunkPath(fileID, i)); err != nil {
			return false
		}
	}
	return total > 0
}

// ChunkReader concatenates chunks 0..total-1 in order. Close releases every
// chunk file. A missing chunk fails before any bytes are read.
func (d *Disk) ChunkReader(fileID int64, total int) (io.ReadCloser, error) {
	files := make([]*os.File, 0, total)
	readers := make([]io.Reader, 0, total)
	for i := 0; i < total; i++ {
		f, err := os.Open(d.chunkPath(fileID, i))
		if err != nil {
			for _, open := range files {
				open.Close() //nolint:errcheck // Best effort cleanup on error
			}
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: chunk %d of file %d", models.ErrNotFound, i, fileID)
			}
			return nil, fmt.Errorf("%w: open chunk %d: %v", models.ErrIOFailure, i, err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return &multiFile{Reader: io.MultiReader(readers...), files: files}, nil
}

// DiscardChunks removes the staging directory of an upload.
func (d *Disk) DiscardChunks(fileID int64) error {
	if err := os.RemoveAll(d.chunkDir(fileID)); err != nil {
		return fmt.Errorf("%w: remove chunks of %d: %v", models.ErrIOFailure, fileID, err)
	}
	return nil
}

type multiFile struct {
	io.Reader
	files []*os.File
}

func (m *multiFile) Close() error {
	var first error
	for _, f := range m.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
