// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package storage lays file bytes out on local disk as
// {root}/{folderID}/{storageName}, with upload chunks staged under
// {root}/.chunks/{fileID}/ until they are assembled.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomtom215/squadfile/internal/models"
)

const chunkDirName = ".chunks"

// Disk is the on-disk file store rooted at a single directory.
type Disk struct {
	root string
}

// NewDisk creates the root directory if needed.
func NewDisk(root string) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create storage root %s: %v", models.ErrIOFailure, abs, err)
	}
	return &Disk{root: abs}, nil
}

// Root returns the absolute storage root.
func (d *Disk) Root() string {
	return d.root
}

// FolderDir is the directory holding a folder's files.
func (d *Disk) FolderDir(folderID int64) string {
	return filepath.Join(d.root, strconv.FormatInt(folderID, 10))
}

// FilePath returns the absolute path of a stored file. storageName must be a
// bare file name.
func (d *Disk) FilePath(folderID int64, storageName string) (string, error) {
	if err := checkName(storageName); err != nil {
		return "", err
	}
	return filepath.Join(d.FolderDir(folderID), storageName), nil
}

// EnsureFolderDir creates the folder directory.
func (d *Disk) EnsureFolderDir(folderID int64) error {
	if err := os.MkdirAll(d.FolderDir(folderID), 0o750); err != nil {
		return fmt.Errorf("%w: create folder dir %d: %v", models.ErrIOFailure, folderID, err)
	}
	return nil
}

// RemoveFolderDir removes the folder directory and everything in it.
func (d *Disk) RemoveFolderDir(folderID int64) error {
	if err := os.RemoveAll(d.FolderDir(folderID)); err != nil {
		return fmt.Errorf("%w: remove folder dir %d: %v", models.ErrIOFailure, folderID, err)
	}
	return nil
}

// Write stores r as folderID/storageName. Bytes go to a temp file in the
// same directory first and are renamed into place, so readers never see a
// partial file. Returns the number of bytes written.
func (d *Disk) Write(folderID int64, storageName string, r io.Reader) (int64, error) {
	dst, err := d.FilePath(folderID, storageName)
	if err != nil {
		return 0, err
	}
	if err := d.EnsureFolderDir(folderID); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+storageName+".*.part")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %v", models.ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close() //nolint:errcheck // Best effort cleanup on error
		return 0, fmt.Errorf("%w: write %s: %v", models.ErrIOFailure, storageName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Best effort cleanup on error
		return 0, fmt.Errorf("%w: sync %s: %v", models.ErrIOFailure, storageName, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: close %s: %v", models.ErrIOFailure, storageName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("%w: rename %s: %v", models.ErrIOFailure, storageName, err)
	}
	return n, nil
}

// Exists reports whether the stored file is present as a regular file.
func (d *Disk) Exists(folderID int64, storageName string) bool {
	p, err := d.FilePath(folderID, storageName)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes one stored file. A file that is already gone is not an error.
func (d *Disk) Remove(folderID int64, storageName string) error {
	p, err := d.FilePath(folderID, storageName)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", models.ErrIOFailure, storageName, err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) ||
		name != filepath.Base(name) {
		return fmt.Errorf("%w: invalid storage name %q", models.ErrValidation, name)
	}
	return nil
}
