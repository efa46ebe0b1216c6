// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package users implements login, admin account management and the
// self-service profile operations.
package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/models"
)

// Store is the user persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id int64, hash string, clearFirstLogin bool) error
	SaveLoginState(ctx context.Context, id int64, st database.LoginState) error
	SoftDeleteUser(ctx context.Context, id int64, at time.Time) error
	CountActiveAdmins(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
}

// Authenticator checks credentials and applies the lockout policy.
type Authenticator interface {
	CheckCredentials(ctx context.Context, username, password string, meta auth.ClientMeta) (*models.User, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, time.Time, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// CreateInput describes a new account.
type CreateInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
	Department  string
	Role        models.Role
}

// UpdateInput changes admin-managed fields. Nil fields are left alone.
type UpdateInput struct {
	Email       *string
	DisplayName *string
	Department  *string
	Role        *models.Role
	Status      *models.UserStatus
}

// ProfileInput changes the fields a user may edit on their own account.
type ProfileInput struct {
	Email       *string
	DisplayName *string
	Department  *string
	Language    *string
}

// Service implements the user operations.
type Service struct {
	store  Store
	gate   Authenticator
	tokens TokenIssuer
	policy config.PasswordPolicy
	events events.Publisher
	now    func() time.Time
}

// NewService creates a Service.
func NewService(store Store, gate Authenticator, tokens TokenIssuer, policy config.PasswordPolicy, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{store: store, gate: gate, tokens: tokens, policy: policy, events: pub, now: time.Now}
}

// Bootstrap creates the first Admin when the user table is empty. With no
// configured password a random one is generated and logged once.
func (s *Service) Bootstrap(ctx context.Context, cfg config.SecurityConfig) (bool, error) {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	username := cfg.AdminUsername
	if username == "" {
		username = "admin"
	}
	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		if password, err = randomPassword(); err != nil {
			return false, err
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		IsFirstLogin: true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}

	ev := logging.Warn().Str("username", username)
	if generated {
		ev = ev.Str("password", password)
	}
	ev.Msg("Created bootstrap admin account; change its password after first login")
	return true, nil
}

func randomPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	// base64 of random bytes may lack a digit; the suffix keeps the policy happy.
	return base64.RawURLEncoding.EncodeToString(b) + "9a", nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string, meta auth.ClientMeta) (*LoginResult, error) {
	user, err := s.gate.CheckCredentials(ctx, strings.TrimSpace(username), password, meta)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: exp, User: user}, nil
}

// List returns every active account. Admin only.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("list users: %w", models.ErrPermissionDenied)
	}
	return s.store.ListUsers(ctx)
}

// Get returns one account. Admins may read any account, users only their own.
func (s *Service) Get(ctx context.Context, actor models.Actor, id int64) (*models.User, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, fmt.Errorf("get user %d: %w", id, models.ErrPermissionDenied)
	}
	return s.store.GetUser(ctx, id)
}

// Create adds an account. Admin only. New accounts must change their
// password on first login.
func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("create user: %w", models.ErrPermissionDenied)
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if in.Role == 0 {
		in.Role = models.RoleNormal
	}
	if err := s.checkPolicy(in.Password, in.Username); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(in.Email),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Department:   strings.TrimSpace(in.Department),
		Role:         in.Role,
		Status:       models.StatusActive,
		IsFirstLogin: true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.publish(ctx, actor, audit.EventTypeUserCreated, u, map[string]interface{}{"role": u.Role.String()})
	return u, nil
}

// Update changes admin-managed fields. The last active Admin can be
// neither demoted nor deactivated.
func (s *Service) Update(ctx context.Context, actor models.Actor, id int64, in UpdateInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("update user %d: %w", id, models.ErrPermissionDenied)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", models.ErrValidation)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status", models.ErrValidation)
	}

	losesAdmin := (in.Role != nil && !in.Role.IsAdmin()) || (in.Status != nil && *in.Status != models.StatusActive)
	if losesAdmin {
		if err := s.ensureAnotherAdmin(ctx, u); err != nil {
			return nil, err
		}
	}

	changed := map[string]interface{}{}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
		changed["email"] = u.Email
	}
	if in.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*in.DisplayName)
		changed["display_name"] = u.DisplayName
	}
	if in.Department != nil {
		u.Department = strings.TrimSpace(*in.Department)
		changed["department"] = u.Department
	}
	if in.Role != nil {
		u.Role = *in.Role
		changed["role"] = u.Role.String()
	}
	unlock := false
	if in.Status != nil {
		unlock = u.Status != models.StatusActive && *in.Status == models.StatusActive
		u.Status = *in.Status
		changed["status"] = u.Status.String()
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	if unlock {
		// Reactivation also clears the lockout counters.
		if err := s.store.SaveLoginState(ctx, u.ID, database.LoginState{Status: models.StatusActive}); err != nil {
			return nil, err
		}
		u.LoginFailCount = 0
		u.LockTime = nil
	}

	s.publish(ctx, actor, audit.EventTypeUserModified, u, changed)
	return u, nil
}

// Delete soft-deletes an account. Admin only; the last active Admin
// cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("delete user %d: %w", id, models.ErrPermissionDenied)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureAnotherAdmin(ctx, u); err != nil {
		return err
	}
	if err := s.store.SoftDeleteUser(ctx, id, s.now().UTC()); err != nil {
		return err
	}

	s.publish(ctx, actor, audit.EventTypeUserDeleted, u, nil)
	return nil
}

// ResetPassword sets a new password chosen by an Admin.
func (s *Service) ResetPassword(ctx context.Context, actor models.Actor, id int64, password string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("reset password %d: %w", id, models.ErrPermissionDenied)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkPolicy(password, u.Username); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, hash, false); err != nil {
		return err
	}

	s.publish(ctx, actor, audit.EventTypeUserModified, u, map[string]interface{}{"password": "reset"})
	return nil
}

// Profile returns the actor's own account.
func (s *Service) Profile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, fmt.Errorf("profile: %w", models.ErrPermissionDenied)
	}
	return s.store.GetUser(ctx, actor.UserID)
}

// UpdateProfile changes the actor's own contact details and language.
func (s *Service) UpdateProfile(ctx context.Context, actor models.Actor, in ProfileInput) (*models.User, error) {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Department != nil {
		u.Department = strings.TrimSpace(*in.Department)
	}
	if in.Language != nil {
		u.Language = strings.TrimSpace(*in.Language)
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the actor's password after checking the current
// one, and clears the first-login flag.
func (s *Service) ChangePassword(ctx context.Context, actor models.Actor, current, next string) error {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(u.PasswordHash, current) {
		return fmt.Errorf("change password: %w", models.ErrInvalidCredentials)
	}
	if current == next {
		return fmt.Errorf("%w: new password must differ from the current one", models.ErrValidation)
	}
	if err := s.checkPolicy(next, u.Username); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, u.ID, hash, true); err != nil {
		return err
	}

	s.publish(ctx, actor, audit.EventTypeUserModified, u, map[string]interface{}{"password": "changed"})
	return nil
}

func (s *Service) checkPolicy(password, username string) error {
	if err := s.policy.Check(password, username); err != nil {
		if errors.Is(err, config.ErrWeakPassword) {
			return fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		return err
	}
	return nil
}

// ensureAnotherAdmin fails with ErrConflict when u is the only active Admin.
func (s *Service) ensureAnotherAdmin(ctx context.Context, u *models.User) error {
	if !u.Role.IsAdmin() || u.Status != models.StatusActive {
		return nil
	}
	n, err := s.store.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return fmt.Errorf("%w: %s is the last active admin", models.ErrConflict, u.Username)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, actor models.Actor, typ events.Type, u *models.User, details map[string]interface{}) {
	s.events.Publish(ctx, events.Event{
		Type:       typ,
		OccurredAt: s.now().UTC(),
		Success:    true,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		TargetID:   u.ID,
		TargetType: "user",
		TargetName: u.Username,
		RequestID:  logging.RequestIDFromContext(ctx),
		Details:    details,
	})
}
