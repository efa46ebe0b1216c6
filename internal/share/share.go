// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package share issues short-link shares and the temporary tokens that
// bridge an anonymous request to an earlier authorization decision.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

const (
	// CodeLength is the length of a short code.
	CodeLength = 8
	// codeBytes random bytes encode to exactly CodeLength base64url chars.
	codeBytes = 6
	// maxCodeAttempts bounds regeneration on a short-code collision.
	maxCodeAttempts = 5

	// UnlockTokenTTL is the lifetime of the token issued for a share.
	UnlockTokenTTL = 30 * time.Second
)

// Store is the share persistence.
type Store interface {
	CreateShare(ctx context.Context, s *models.ShareRecord) error
	GetShareByCode(ctx context.Context, code string) (*models.ShareRecord, error)
	ListShares(ctx context.Context, search string, page, pageSize int) ([]models.ShareListing, int, error)
	SoftDeleteShares(ctx context.Context, ids []int64, at time.Time) (int64, error)
}

// ItemStore loads the shareable items.
type ItemStore interface {
	GetFile(ctx context.Context, id int64) (*models.FileRecord, error)
	GetFolder(ctx context.Context, id int64) (*models.Folder, error)
}

// Permissions is the part of the permission engine the issuer needs.
type Permissions interface {
	Require(ctx context.Context, actor models.Actor, folderID int64, capability models.Capability) error
}

// Tokens is the temporary token store.
type Tokens interface {
	Create(ctx context.Context, resourceType models.ItemType, resourceID, userID int64, ttl time.Duration) (string, error)
	Validate(ctx context.Context, tok string) (*models.TemporaryToken, error)
}

// Info is what an anonymous visitor learns about a share before unlocking it.
type Info struct {
	ShortCode   string          `json:"short_code"`
	ItemType    models.ItemType `json:"item_type"`
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	Size        int64           `json:"size,omitempty"`
	HasPassword bool            `json:"has_password"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

// Issuer creates and validates shares and temporary tokens.
type Issuer struct {
	store  Store
	items  ItemStore
	perms  Permissions
	tokens Tokens
	events events.Publisher
	random io.Reader
	now    func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(store Store, items ItemStore, perms Permissions, tokens Tokens, pub events.Publisher) *Issuer {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Issuer{
		store:  store,
		items:  items,
		perms:  perms,
		tokens: tokens,
		events: pub,
		random: rand.Reader,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// CreateShare shares a file or folder. The actor needs Read on the target
// (the owning folder for a file). An empty password leaves the share open;
// a nil expiresAt never expires.
func (i *Issuer) CreateShare(ctx context.Context, actor models.Actor, itemID int64, itemType models.ItemType, password string, expiresAt *time.Time) (*models.ShareRecord, error) {
	folderID, name, err := i.resolveItem(ctx, itemID, itemType)
	if err != nil {
		return nil, err
	}
	if err := i.perms.Require(ctx, actor, folderID, models.CapRead); err != nil {
		return nil, err
	}

	now := i.now().UTC()
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return nil, fmt.Errorf("%w: expiry must be in the future", models.ErrValidation)
		}
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	rec := &models.ShareRecord{
		ItemID:    itemID,
		ItemType:  itemType,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if password != "" {
		if rec.PasswordHash, err = auth.HashPassword(password); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		code, err := i.newCode()
		if err != nil {
			return nil, err
		}
		rec.ShortCode = code
		err = i.store.CreateShare(ctx, rec)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrConflict) || attempt == maxCodeAttempts {
			return nil, fmt.Errorf("create share: %w", err)
		}
		logging.Ctx(ctx).Warn().Int("attempt", attempt).Msg("Short code collision, regenerating")
	}

	i.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeShareCreated,
		Success:    true,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		TargetID:   itemID,
		TargetType: itemType.String(),
		TargetName: name,
		Details: map[string]interface{}{
			"short_code":   rec.ShortCode,
			"has_password": rec.HasPassword(),
			"expires":      expiresAt != nil,
		},
	})
	return rec, nil
}

// newCode draws codeBytes from the random source and encodes them as
// unpadded base64url.
func (i *Issuer) newCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := io.ReadFull(i.random, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b)[:CodeLength], nil
}

// resolveItem returns the folder that governs access to the item and its
// display name.
func (i *Issuer) resolveItem(ctx context.Context, itemID int64, itemType models.ItemType) (int64, string, error) {
	switch itemType {
	case models.ItemFile:
		f, err := i.items.GetFile(ctx, itemID)
		if err != nil {
			return 0, "", err
		}
		if f.State != models.FileStateComplete {
			return 0, "", fmt.Errorf("file %d is not uploaded yet: %w", itemID, models.ErrNotFound)
		}
		return f.FolderID, f.OriginalName, nil
	case models.ItemFolder:
		f, err := i.items.GetFolder(ctx, itemID)
		if err != nil {
			return 0, "", err
		}
		return f.ID, f.Name, nil
	default:
		return 0, "", fmt.Errorf("%w: unknown item type %d", models.ErrValidation, itemType)
	}
}

// ResolveShare looks up an active share. Unknown and deleted codes are
// models.ErrNotFound; expired ones models.ErrExpired.
func (i *Issuer) ResolveShare(ctx context.Context, code string) (*models.ShareRecord, error) {
	if len(code) != CodeLength {
		metrics.RecordShareResolution("not_found")
		return nil, fmt.Errorf("share %q: %w", code, models.ErrNotFound)
	}
	rec, err := i.store.GetShareByCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.RecordShareResolution("not_found")
		}
		return nil, err
	}
	if rec.IsExpired(i.now()) {
		metrics.RecordShareResolution("expired")
		return nil, fmt.Errorf("share %q: %w", code, models.ErrExpired)
	}
	metrics.RecordShareResolution("ok")
	return rec, nil
}

// Info describes an active share without unlocking it.
func (i *Issuer) Info(ctx context.Context, code string) (*Info, error) {
	rec, err := i.ResolveShare(ctx, code)
	if err != nil {
		return nil, err
	}
	info := &Info{
		ShortCode:   rec.ShortCode,
		ItemType:    rec.ItemType,
		ItemID:      rec.ItemID,
		HasPassword: rec.HasPassword(),
		ExpiresAt:   rec.ExpiresAt,
	}
	switch rec.ItemType {
	case models.ItemFile:
		f, err := i.items.GetFile(ctx, rec.ItemID)
		if err != nil {
			return nil, err
		}
		info.ItemName, info.Size = f.OriginalName, f.Size
	case models.ItemFolder:
		f, err := i.items.GetFolder(ctx, rec.ItemID)
		if err != nil {
			return nil, err
		}
		info.ItemName = f.Name
	}
	return info, nil
}

// ValidateSharePassword reports whether candidate unlocks rec. A share
// without a password accepts anything. An expired share accepts nothing.
func (i *Issuer) ValidateSharePassword(rec *models.ShareRecord, candidate string) bool {
	if rec.IsExpired(i.now()) {
		return false
	}
	if !rec.HasPassword() {
		return true
	}
	return auth.VerifyPassword(rec.PasswordHash, candidate)
}

// Unlock checks the password of the share behind code and issues an
// anonymous temporary token for its item.
func (i *Issuer) Unlock(ctx context.Context, code, password string, meta auth.ClientMeta) (string, *models.ShareRecord, error) {
	rec, err := i.ResolveShare(ctx, code)
	if err != nil {
		return "", nil, err
	}
	if !i.ValidateSharePassword(rec, password) {
		// the share may have expired between resolve and validate
		if rec.IsExpired(i.now()) {
			return "", nil, fmt.Errorf("share %q: %w", code, models.ErrExpired)
		}
		i.publishAccess(ctx, rec, meta, false)
		return "", nil, fmt.Errorf("share %q: %w", code, models.ErrInvalidCredentials)
	}
	tok, err := i.tokens.Create(ctx, rec.ItemType, rec.ItemID, 0, UnlockTokenTTL)
	if err != nil {
		return "", nil, err
	}
	i.publishAccess(ctx, rec, meta, true)
	return tok, rec, nil
}

// AuthorizeDownload decides whether the file behind a share may be
// streamed. Password-protected shares need a token from Unlock. It returns
// the id of the file to serve.
func (i *Issuer) AuthorizeDownload(ctx context.Context, code, token string) (int64, error) {
	rec, err := i.ResolveShare(ctx, code)
	if err != nil {
		return 0, err
	}
	if rec.ItemType != models.ItemFile {
		return 0, fmt.Errorf("%w: share %q is a folder", models.ErrValidation, code)
	}
	if rec.HasPassword() {
		t, err := i.tokens.Validate(ctx, token)
		if err != nil {
			return 0, fmt.Errorf("share %q: %w", code, models.ErrPermissionDenied)
		}
		if !t.BoundTo(models.ItemFile, rec.ItemID) {
			return 0, fmt.Errorf("token bound to another item: %w", models.ErrPermissionDenied)
		}
	}
	return rec.ItemID, nil
}

// CreateTemporaryToken issues a token binding one item and userID for ttl.
func (i *Issuer) CreateTemporaryToken(ctx context.Context, itemType models.ItemType, resourceID, userID int64, ttl time.Duration) (string, error) {
	return i.tokens.Create(ctx, itemType, resourceID, userID, ttl)
}

// ValidateTemporaryToken returns the token record, or nil when the token
// is unknown, used or expired.
func (i *Issuer) ValidateTemporaryToken(ctx context.Context, tok string) *models.TemporaryToken {
	rec, err := i.tokens.Validate(ctx, tok)
	if err != nil {
		return nil
	}
	return rec
}

// ListShares pages through active share records for admins.
func (i *Issuer) ListShares(ctx context.Context, search string, page, pageSize int) (models.Page[models.ShareListing], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, total, err := i.store.ListShares(ctx, search, page, pageSize)
	if err != nil {
		return models.Page[models.ShareListing]{}, err
	}
	return models.NewPage(items, total, page, pageSize), nil
}

// DeleteShares soft-deletes shares. Admin only.
func (i *Issuer) DeleteShares(ctx context.Context, actor models.Actor, ids []int64) (int64, error) {
	if !actor.IsAdmin() {
		return 0, fmt.Errorf("delete shares: %w", models.ErrPermissionDenied)
	}
	n, err := i.store.SoftDeleteShares(ctx, ids, i.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		i.events.Publish(ctx, events.Event{
			Type:       audit.EventTypeShareDeleted,
			Success:    true,
			ActorID:    actor.UserID,
			ActorName:  actor.Username,
			TargetType: "share",
			Details:    map[string]interface{}{"ids": ids, "deleted": n},
		})
	}
	return n, nil
}

func (i *Issuer) publishAccess(ctx context.Context, rec *models.ShareRecord, meta auth.ClientMeta, ok bool) {
	outcome := "unlocked"
	if !ok {
		outcome = "bad_password"
	}
	logging.NewSecurityLogger().LogShareAccess(rec.ShortCode, meta.IP, outcome)
	i.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeShareAccessed,
		Success:    ok,
		TargetID:   rec.ItemID,
		TargetType: rec.ItemType.String(),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		Details:    map[string]interface{}{"short_code": rec.ShortCode},
	})
}
