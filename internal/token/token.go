// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package token issues and validates short-lived download tokens.
//
// Tokens live only in BadgerDB with a native TTL, so they vanish on their
// own. The stored record also carries ExpiresAt, which is what validation
// compares against: badger's TTL has one-second granularity and is only
// enforced on read.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/models"
)

const keyPrefix = "tmptoken:"

// Store keeps temporary tokens in BadgerDB.
type Store struct {
	db        *badger.DB
	owned     bool
	singleUse bool
	now       func() time.Time
}

// Open opens the badger database described by cfg. An empty Dir runs badger
// in memory, which is enough since tokens do not need to survive a restart.
func Open(cfg config.TokensConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	s := New(db, cfg.SingleUse)
	s.owned = true
	return s, nil
}

// New wraps an already open badger database.
func New(db *badger.DB, singleUse bool) *Store {
	return &Store{db: db, singleUse: singleUse, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// SingleUse reports whether a token is consumed by its first validation.
func (s *Store) SingleUse() bool {
	return s.singleUse
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Create issues a token bound to one file or folder and to userID (0 for
// anonymous) that expires after ttl.
func (s *Store) Create(ctx context.Context, resourceType models.ItemType, resourceID, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: token ttl must be positive", models.ErrValidation)
	}
	if !resourceType.Valid() {
		return "", fmt.Errorf("%w: token resource type %v", models.ErrValidation, resourceType)
	}
	now := s.now().UTC()
	rec := models.TemporaryToken{
		Token:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal token: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// badger rounds TTLs to whole seconds; round up so the key never
		// disappears before ExpiresAt
		return txn.SetEntry(badger.NewEntry(key(rec.Token), data).WithTTL(ttl.Truncate(time.Second) + time.Second))
	})
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	metrics.RecordTokenIssued()
	logging.Ctx(ctx).Debug().
		Stringer("resource_type", resourceType).
		Int64("resource_id", resourceID).
		Int64("user_id", userID).
		Dur("ttl", ttl).
		Msg("Issued temporary token")
	return rec.Token, nil
}

// Validate returns the record for tok. It fails with models.ErrNotFound for
// unknown (or already consumed) tokens and models.ErrExpired past expiry.
//
// In single-use mode a file token is consumed here. Folder tokens are never
// consumed: one unlock of a folder share has to cover the listing and every
// download from it until the token expires.
func (s *Store) Validate(ctx context.Context, tok string) (*models.TemporaryToken, error) {
	return s.check(ctx, tok, true)
}

// Peek is Validate without consuming the token.
func (s *Store) Peek(ctx context.Context, tok string) (*models.TemporaryToken, error) {
	return s.check(ctx, tok, false)
}

func (s *Store) check(ctx context.Context, tok string, consume bool) (*models.TemporaryToken, error) {
	rec, err := s.validate(tok, consume)
	metrics.RecordTokenValidation(err == nil)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Temporary token rejected")
		return nil, err
	}
	return rec, nil
}

func (s *Store) validate(tok string, consume bool) (*models.TemporaryToken, error) {
	if tok == "" {
		return nil, fmt.Errorf("temporary token: %w", models.ErrNotFound)
	}

	var rec models.TemporaryToken
	load := func(txn *badger.Txn) error {
		item, err := txn.Get(key(tok))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("temporary token: %w", models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	}

	if err := s.db.View(load); err != nil {
		return nil, err
	}
	if !s.singleUse || !consume || rec.ResourceType != models.ItemFile {
		if s.singleUse && rec.Used {
			return nil, fmt.Errorf("temporary token already used: %w", models.ErrNotFound)
		}
		if rec.IsExpired(s.now()) {
			return nil, fmt.Errorf("temporary token: %w", models.ErrExpired)
		}
		return &rec, nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := load(txn); err != nil {
			return err
		}
		if rec.Used {
			return fmt.Errorf("temporary token already used: %w", models.ErrNotFound)
		}
		now := s.now()
		if rec.IsExpired(now) {
			return fmt.Errorf("temporary token: %w", models.ErrExpired)
		}
		rec.Used = true
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal token: %w", err)
		}
		remaining := rec.ExpiresAt.Sub(now).Truncate(time.Second) + time.Second
		return txn.SetEntry(badger.NewEntry(key(tok), data).WithTTL(remaining))
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent validation of the same token committed first
		return nil, fmt.Errorf("temporary token already used: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func key(tok string) []byte {
	return []byte(keyPrefix + tok)
}
