// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package validation

import (
	"strings"
	"testing"
)

type folderRequest struct {
	Name     string `json:"name" validate:"required,max=100,safename"`
	ParentID int64  `json:"parent_id" validate:"gte=0"`
	Role     string `json:"role" validate:"omitempty,oneof=Normal Admin"`
}

func TestValidateStruct_Valid(t *testing.T) {
	if err := ValidateStruct(folderRequest{Name: "Reports 2026", ParentID: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	err := ValidateStruct(folderRequest{ParentID: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(err.Fields), err)
	}
	if err.Fields[0].Field != "name" || err.Fields[0].Tag != "required" {
		t.Errorf("first error = %+v", err.Fields[0])
	}
	if err.Fields[1].Field != "parent_id" {
		t.Errorf("second error field = %q, want parent_id", err.Fields[1].Field)
	}
}

func TestValidateStruct_SafeName(t *testing.T) {
	for _, name := range []string{"../etc", `a\b`, "..", "x/y"} {
		err := ValidateStruct(folderRequest{Name: name})
		if err == nil {
			t.Errorf("expected %q to be rejected", name)
			continue
		}
		if !strings.Contains(err.Error(), "path separators") {
			t.Errorf("unexpected message for %q: %v", name, err)
		}
	}
}

func TestValidateStruct_OneOf(t *testing.T) {
	err := ValidateStruct(folderRequest{Name: "ok", Role: "Root"})
	if err == nil {
		t.Fatal("expected oneof failure")
	}
	if got := err.Fields[0].Message; got != "role must be one of: Normal Admin" {
		t.Errorf("message = %q", got)
	}
}
