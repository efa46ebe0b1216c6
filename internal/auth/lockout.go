// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

// CredentialStore is the user persistence the Gate needs.
type CredentialStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveLoginState(ctx context.Context, id int64, st database.LoginState) error
	RecordLoginFailure(ctx context.Context, id int64, threshold int, at time.Time) (database.LoginState, error)
	RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error
}

// ClientMeta describes where a request came from.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Gate checks passwords and applies the lockout policy.
type Gate struct {
	store     CredentialStore
	threshold int
	window    time.Duration
	events    events.Publisher
	security  *logging.SecurityLogger
	now       func() time.Time
}

// NewGate creates a Gate using the lockout threshold and window from cfg.
func NewGate(store CredentialStore, cfg config.SecurityConfig, pub events.Publisher) *Gate {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	threshold := cfg.LockoutThreshold
	if threshold < 1 {
		threshold = 3
	}
	window := cfg.LockoutWindow
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Gate{
		store:     store,
		threshold: threshold,
		window:    window,
		events:    pub,
		security:  logging.NewSecurityLogger(),
		now:       time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// CheckCredentials verifies username and password and returns the user.
//
// Errors:
//   - models.ErrInvalidCredentials: unknown user or wrong password
//   - models.ErrLockedAccount: inside the lockout window; the password was not checked
//   - models.ErrPermissionDenied: the account is Inactive
func (g *Gate) CheckCredentials(ctx context.Context, username, password string, meta ClientMeta) (*models.User, error) {
	user, err := g.store.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		g.fail(ctx, nil, username, meta, events.ReasonUnknownUser)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.Status == models.StatusInactive {
		g.fail(ctx, user, username, meta, events.ReasonInactive)
		return nil, fmt.Errorf("account disabled: %w", models.ErrPermissionDenied)
	}

	now := g.now().UTC()
	if g.lockedAt(user, now) {
		g.fail(ctx, user, username, meta, events.ReasonLocked)
		return nil, models.ErrLockedAccount
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, g.recordFailure(ctx, user, meta, now)
	}

	if user.LoginFailCount != 0 || user.Status != models.StatusActive || user.LockTime != nil {
		if err := g.store.SaveLoginState(ctx, user.ID, database.LoginState{Status: models.StatusActive}); err != nil {
			return nil, fmt.Errorf("reset login state: %w", err)
		}
		user.LoginFailCount = 0
		user.Status = models.StatusActive
		user.LockTime = nil
	}
	if err := g.store.RecordLogin(ctx, user.ID, now, meta.IP); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginTime = &now
		user.LastLoginIP = meta.IP
	}

	g.security.LogLoginSuccess(user.ID, user.Username, meta.IP)
	g.events.Publish(ctx, events.Event{
		Type:       audit.EventTypeAuthSuccess,
		OccurredAt: now,
		Success:    true,
		ActorID:    user.ID,
		ActorName:  user.Username,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return user, nil
}

// lockedAt reports whether user is still inside the lockout window. A
// Locked status without a lock time counts as expired.
func (g *Gate) lockedAt(user *models.User, now time.Time) bool {
	if user.Status != models.StatusLocked || user.LockTime == nil {
		return false
	}
	return now.Sub(*user.LockTime) < g.window
}

func (g *Gate) recordFailure(ctx context.Context, user *models.User, meta ClientMeta, now time.Time) error {
	st, err := g.store.RecordLoginFailure(ctx, user.ID, g.threshold, now)
	if err != nil {
		return fmt.Errorf("save login state: %w", err)
	}
	locking := st.FailCount >= g.threshold
	user.LoginFailCount, user.Status, user.LockTime = st.FailCount, st.Status, st.LockTime

	g.fail(ctx, user, user.Username, meta, events.ReasonBadPassword)
	if locking {
		g.security.LogAccountLocked(user.ID, user.Username, st.FailCount)
		g.events.Publish(ctx, events.Event{
			Type:       audit.EventTypeAuthLockout,
			OccurredAt: now,
			ActorID:    user.ID,
			ActorName:  user.Username,
			IP:         meta.IP,
			UserAgent:  meta.UserAgent,
			Details:    map[string]interface{}{"failures": st.FailCount},
		})
	}
	return models.ErrInvalidCredentials
}

func (g *Gate) fail(ctx context.Context, user *models.User, username string, meta ClientMeta, reason string) {
	g.security.LogLoginFailure(username, meta.IP, reason)
	e := events.Event{
		Type:      audit.EventTypeAuthFailure,
		ActorName: username,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Reason:    reason,
	}
	if user != nil {
		e.ActorID = user.ID
	}
	g.events.Publish(ctx, e)
}
