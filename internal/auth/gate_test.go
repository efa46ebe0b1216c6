// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/models"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

type gateFixture struct {
	db    *database.DB
	gate  *Gate
	rec   *events.Recorder
	now   time.Time
	alice *models.User
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "auth.db")})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	alice := &models.User{Username: "alice", PasswordHash: hash, Role: models.RoleNormal}
	if err := db.CreateUser(context.Background(), alice); err != nil {
		t.Fatal(err)
	}

	f := &gateFixture{
		db:    db,
		rec:   &events.Recorder{},
		now:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		alice: alice,
	}
	f.gate = NewGate(db, config.SecurityConfig{LockoutThreshold: 3, LockoutWindow: 10 * time.Minute}, f.rec)
	f.gate.SetClock(func() time.Time { return f.now })
	return f
}

func (f *gateFixture) login(password string) (*models.User, error) {
	return f.gate.CheckCredentials(context.Background(), "alice", password, ClientMeta{IP: "198.51.100.4", UserAgent: "test"})
}

func (f *gateFixture) reload(t *testing.T) *models.User {
	t.Helper()
	u, err := f.db.GetUser(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestCheckCredentials_Success(t *testing.T) {
	f := newGateFixture(t)
	u, err := f.login("correct horse")
	if err != nil {
		t.Fatalf("CheckCredentials() error = %v", err)
	}
	if u.ID != f.alice.ID || u.LastLoginIP != "198.51.100.4" {
		t.Errorf("user = %+v", u)
	}
	stored := f.reload(t)
	if stored.LastLoginTime == nil || !stored.LastLoginTime.Equal(f.now) {
		t.Errorf("LastLoginTime = %v, want %v", stored.LastLoginTime, f.now)
	}
	if len(f.rec.OfType(audit.EventTypeAuthSuccess)) != 1 {
		t.Error("expected one auth.success event")
	}
}

func TestCheckCredentials_UnknownUser(t *testing.T) {
	f := newGateFixture(t)
	_, err := f.gate.CheckCredentials(context.Background(), "nobody", "x", ClientMeta{})
	if !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
	fails := f.rec.OfType(audit.EventTypeAuthFailure)
	if len(fails) != 1 || fails[0].Reason != events.ReasonUnknownUser {
		t.Errorf("failure events = %+v", fails)
	}
}

func TestCheckCredentials_CorrectPasswordResetsCounter(t *testing.T) {
	f := newGateFixture(t)
	for i := 0; i < 2; i++ {
		if _, err := f.login("wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Fatalf("attempt %d error = %v", i, err)
		}
	}
	if got := f.reload(t).LoginFailCount; got != 2 {
		t.Fatalf("LoginFailCount = %d, want 2", got)
	}
	if _, err := f.login("correct horse"); err != nil {
		t.Fatalf("correct login error = %v", err)
	}
	if got := f.reload(t).LoginFailCount; got != 0 {
		t.Errorf("LoginFailCount after success = %d, want 0", got)
	}
}

func TestCheckCredentials_Lockout(t *testing.T) {
	f := newGateFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := f.login("wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
			t.Fatalf("attempt %d error = %v", i, err)
		}
	}
	u := f.reload(t)
	if u.Status != models.StatusLocked || u.LockTime == nil || !u.LockTime.Equal(f.now) {
		t.Fatalf("after 3 failures status=%s lock=%v", u.Status, u.LockTime)
	}
	if len(f.rec.OfType(audit.EventTypeAuthLockout)) != 1 {
		t.Error("expected one lockout event")
	}

	// correct password inside the window is still refused
	f.now = f.now.Add(9*time.Minute + 59*time.Second)
	if _, err := f.login("correct horse"); !errors.Is(err, models.ErrLockedAccount) {
		t.Fatalf("login inside window error = %v, want ErrLockedAccount", err)
	}
	if got := f.reload(t).LoginFailCount; got != 3 {
		t.Errorf("LoginFailCount changed inside window: %d", got)
	}

	f.now = f.now.Add(time.Second)
	if _, err := f.login("correct horse"); err != nil {
		t.Fatalf("login after window error = %v", err)
	}
	u = f.reload(t)
	if u.Status != models.StatusActive || u.LoginFailCount != 0 || u.LockTime != nil {
		t.Errorf("after unlock status=%s count=%d lock=%v", u.Status, u.LoginFailCount, u.LockTime)
	}
}

func TestCheckCredentials_WrongPasswordAfterWindowRelocks(t *testing.T) {
	f := newGateFixture(t)
	for i := 0; i < 3; i++ {
		_, _ = f.login("wrong")
	}
	f.now = f.now.Add(11 * time.Minute)
	if _, err := f.login("wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Fatalf("error = %v", err)
	}
	u := f.reload(t)
	if u.Status != models.StatusLocked || !u.LockTime.Equal(f.now) {
		t.Errorf("status=%s lock=%v, want relocked at %v", u.Status, u.LockTime, f.now)
	}
}

func TestCheckCredentials_ConcurrentFailuresAllCount(t *testing.T) {
	f := newGateFixture(t)
	f.gate = NewGate(f.db, config.SecurityConfig{LockoutThreshold: 50, LockoutWindow: time.Minute}, events.NopPublisher{})
	f.gate.SetClock(func() time.Time { return f.now })

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.login("wrong")
		}()
	}
	wg.Wait()

	if u := f.reload(t); u.LoginFailCount != 12 || u.Status != models.StatusActive {
		t.Errorf("count=%d status=%s, want 12 and Active", u.LoginFailCount, u.Status)
	}
}

func TestCheckCredentials_Inactive(t *testing.T) {
	f := newGateFixture(t)
	u := f.reload(t)
	u.Status = models.StatusInactive
	if err := f.db.UpdateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if _, err := f.login("correct horse"); !errors.Is(err, models.ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}
}
