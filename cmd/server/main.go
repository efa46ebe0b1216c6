// SquadFile - Team File Sharing with Folder Permissions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/squadfile

// Package main is the entry point for the SquadFile server.
//
// Startup order:
//
//  1. Configuration: defaults, optional config.yaml, then environment (koanf)
//  2. Stores: SQLite metadata, blob directory, Badger token store, audit sink
//  3. Event bus: watermill router feeding the audit and metrics consumers
//  4. Services: settings, users, folders, files, shares, stats
//  5. HTTP: chi router with JWT authentication and casbin route policy
//  6. Supervisor tree: HTTP server, event bus and background maintenance
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains in-flight
// requests for up to server.shutdown_timeout before stores are closed.
//
// Minimal setup:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=change-me-123
//	./squadfile
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/squadfile/internal/api"
	"github.com/tomtom215/squadfile/internal/audit"
	"github.com/tomtom215/squadfile/internal/auth"
	"github.com/tomtom215/squadfile/internal/authz"
	"github.com/tomtom215/squadfile/internal/cache"
	"github.com/tomtom215/squadfile/internal/config"
	"github.com/tomtom215/squadfile/internal/database"
	"github.com/tomtom215/squadfile/internal/events"
	"github.com/tomtom215/squadfile/internal/files"
	"github.com/tomtom215/squadfile/internal/folders"
	"github.com/tomtom215/squadfile/internal/logging"
	"github.com/tomtom215/squadfile/internal/metrics"
	"github.com/tomtom215/squadfile/internal/permission"
	"github.com/tomtom215/squadfile/internal/settings"
	"github.com/tomtom215/squadfile/internal/share"
	"github.com/tomtom215/squadfile/internal/stats"
	"github.com/tomtom215/squadfile/internal/storage"
	"github.com/tomtom215/squadfile/internal/supervisor"
	"github.com/tomtom215/squadfile/internal/supervisor/services"
	"github.com/tomtom215/squadfile/internal/token"
	"github.com/tomtom215/squadfile/internal/users"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("SquadFile stopped with an error")
	}
}

//nolint:gocyclo // sequential wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("storage_root", cfg.Files.StorageRoot).
		Str("audit_store", cfg.Audit.Store).
		Msg("Starting SquadFile")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer closeLogged("database", db.Close)

	disk, err := storage.NewDisk(cfg.Files.StorageRoot)
	if err != nil {
		return fmt.Errorf("initialize blob storage: %w", err)
	}

	tokens, err := token.Open(cfg.Tokens)
	if err != nil {
		return err
	}
	defer closeLogged("token store", tokens.Close)

	auditStore, closeAudit, err := openAuditStore(ctx, cfg.Audit)
	if err != nil {
		return err
	}
	defer closeLogged("audit store", closeAudit)

	auditCfg := audit.DefaultConfig()
	auditCfg.BufferSize = cfg.Audit.BufferSize
	auditLog := audit.NewLogger(auditStore, auditCfg)
	// runs before the store closes
	defer closeLogged("audit logger", auditLog.Close)

	bus, err := events.NewBus(events.DefaultConfig(), logging.NewWatermillAdapter())
	if err != nil {
		return err
	}
	defer closeLogged("event bus", bus.Close)
	bus.Handle("audit", events.AuditConsumer(auditLog))
	bus.Handle("metrics", events.MetricsConsumer())

	statsCache := cache.New(30 * time.Second)
	defer statsCache.Close()

	settingsSvc := settings.NewService(db, statsCache, bus)
	if err := settingsSvc.Init(ctx); err != nil {
		return fmt.Errorf("initialize system settings: %w", err)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("initialize JWT manager: %w", err)
	}
	engine := permission.NewEngine(db, db, db)
	usersSvc := users.NewService(db, auth.NewGate(db, cfg.Security, bus), jwtManager, cfg.Security.PasswordPolicy(), bus)
	created, err := usersSvc.Bootstrap(ctx, cfg.Security)
	if err != nil {
		return fmt.Errorf("bootstrap admin account: %w", err)
	}
	if created {
		logging.Info().Str("username", cfg.Security.AdminUsername).Msg("Created initial administrator")
	}

	handler := api.NewHandler(api.Dependencies{
		Users:    usersSvc,
		Folders:  folders.NewManager(db, disk, engine, tokens, bus),
		Files:    files.NewRegistry(db, disk, engine, settingsSvc, tokens, bus, cfg.Files.SearchScope),
		Shares:   share.NewIssuer(db, db, engine, tokens, bus),
		Settings: settingsSvc,
		Stats:    stats.NewService(db, statsCache),
		Audit:    auditLog,
		DB:       db,
		Version:  version,
	})

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		return fmt.Errorf("initialize route policy: %w", err)
	}

	chiCfg := api.DefaultChiMiddlewareConfig()
	chiCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	chiCfg.RateLimitRequests = cfg.Server.RateLimitReqs
	chiCfg.RateLimitWindow = cfg.Server.RateLimitWindow
	chiCfg.RateLimitDisabled = cfg.Server.RateLimitReqs == 0

	shareLimiter := api.NewShareLimiter(cfg.Server.ShareRatePerMinute)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, db, api.WriteError),
		authz.NewMiddleware(enforcer, api.WriteError),
		api.NewChiMiddleware(chiCfg),
		shareLimiter,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	metrics.SetAppInfo(version, runtime.Version())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddMaintenanceService(files.NewSweeper(db, disk, cfg.Files.OrphanTTL, cfg.Files.SweepInterval))
	tree.AddMaintenanceService(shareLimiter)
	tree.AddMaintenanceService(services.NewLoopService("audit-retention", auditLog.RunRetention))
	tree.AddEventService(services.NewFuncService("event-bus", bus.Run))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("SquadFile stopped")
	return nil
}

// openAuditStore returns the configured audit sink and its closer. DuckDB is
// guarded by a circuit breaker so a failing audit file never blocks requests.
func openAuditStore(ctx context.Context, cfg config.AuditConfig) (audit.Store, func() error, error) {
	if cfg.Store == "memory" {
		return audit.NewMemoryStore(0), func() error { return nil }, nil
	}
	duck, err := audit.OpenDuckDBStore(ctx, cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit store: %w", err)
	}
	return audit.NewBreakerStore(duck, audit.DefaultBreakerConfig()), duck.Close, nil
}

func closeLogged(name string, fn func() error) {
	if err := fn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Error during shutdown")
	}
}
