// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// FuncService adapts a blocking run function, such as the event bus router
// or the audit retention loop, to suture.Service.
type FuncService struct {
	name string
	run  func(ctx context.Context) error
}

// NewFuncService wraps run under name.
func NewFuncService(name string, run func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, run: run}
}

// NewLoopService wraps a loop that returns nothing and stops with ctx.
func NewLoopService(name string, loop func(ctx context.Context)) *FuncService {
	return NewFuncService(name, func(ctx context.Context) error {
		loop(ctx)
		return nil
	})
}

// Serve implements suture.Service. A run function that returns cleanly
// while ctx is still live was closed from outside and is not restarted.
func (s *FuncService) Serve(ctx context.Context) error {
	err := s.run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return suture.ErrDoNotRestart
}

func (s *FuncService) String() string {
	return s.name
}
