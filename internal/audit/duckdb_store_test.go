// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/squadfile/internal/models"
)

func newTestDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()
	s, err := OpenDuckDBStore(context.Background(), filepath.Join(t.TempDir(), "audit.duckdb"))
	if err != nil {
		t.Fatalf("OpenDuckDBStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDuckDBStore_RoundTrip(t *testing.T) {
	s := newTestDuckDBStore(t)
	ctx := context.Background()

	in := sampleEvent(1, EventTypeFileDownload)
	in.Source.DeviceType = DeviceMobile
	in.RequestID = "req-1"
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Type != in.Type || got.Actor.Name != "alice" || got.Target == nil || got.Target.Name != "budget.xlsx" {
		t.Errorf("Get() = %+v", got)
	}
	if got.Source.DeviceType != DeviceMobile || got.RequestID != "req-1" {
		t.Errorf("source/request fields lost: %+v", got)
	}
	if !got.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, in.Timestamp)
	}
	if len(got.Metadata) == 0 {
		t.Error("metadata lost")
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDuckDBStore_QueryFilters(t *testing.T) {
	s := newTestDuckDBStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := s.Save(ctx, sampleEvent(i, EventTypeFileDownload)); err != nil {
			t.Fatal(err)
		}
	}
	fail := sampleEvent(9, EventTypeAuthFailure)
	fail.Outcome = OutcomeFailure
	fail.Target = nil
	if err := s.Save(ctx, fail); err != nil {
		t.Fatal(err)
	}

	logins, err := s.Query(ctx, QueryFilter{Types: LoginEventTypes})
	if err != nil {
		t.Fatal(err)
	}
	if len(logins) != 1 || logins[0].Target != nil {
		t.Errorf("login log = %+v", logins)
	}

	page, _ := s.Query(ctx, QueryFilter{Types: DownloadEventTypes, Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "evt-02" {
		t.Errorf("download page = %v", ids(page))
	}

	if n, _ := s.Count(ctx, QueryFilter{SearchText: "ALICE"}); n != 5 {
		t.Errorf("search count = %d, want 5", n)
	}

	deleted, err := s.Delete(ctx, baseTime.Add(2*time.Minute))
	if err != nil || deleted != 2 {
		t.Errorf("Delete = (%d, %v), want (2, nil)", deleted, err)
	}
}
