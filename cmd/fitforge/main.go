package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/fitforge/internal/config"
	"github.com/claude/fitforge/internal/exercise"
	"github.com/claude/fitforge/internal/forecast"
	"github.com/claude/fitforge/internal/localstore"
	fitmcp "github.com/claude/fitforge/internal/mcp"
	"github.com/claude/fitforge/internal/metrics"
	"github.com/claude/fitforge/internal/muscle"
	"github.com/claude/fitforge/internal/server"
	"github.com/claude/fitforge/internal/storage"
	"github.com/claude/fitforge/internal/training"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FitForge starting", "version", Version)

	// The engine refuses to start on an incomplete muscle mapping.
	if err := muscle.Validate(); err != nil {
		log.Error("muscle taxonomy invalid", "error", err)
		os.Exit(1)
	}
	lib, err := exercise.Default()
	if err != nil {
		log.Error("failed to load exercise library", "error", err)
		os.Exit(1)
	}
	log.Info("exercise library loaded", "exercises", lib.Len())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg.Database, *migrateOnly, log)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if store == nil {
		log.Info("migrate-only: exiting")
		return
	}
	defer closeStore()

	equipment, err := cfg.Profile.ParsedEquipment()
	if err != nil {
		log.Error("invalid profile equipment", "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	m := metrics.NewManager("fitforge", "server", reg)

	e := cfg.Engine
	svc := training.New(store, lib, training.Options{
		RecoveryRatePerDay: e.RecoveryRatePerDay,
		Thresholds:         forecast.Thresholds{Critical: e.CriticalThreshold, WarningFraction: e.WarningFraction},
		SafetyCeiling:      e.SafetyCeiling,
		ReferenceVolume:    e.ReferenceVolume,
		BodyweightLoad:     e.BodyweightLoad,
		DefaultBaseline:    e.DefaultBaseline,
		BaselineIncrement:  e.BaselineIncrement,
		Equipment:          equipment,
		RecentWindow:       time.Duration(e.RecentWindowDays) * 24 * time.Hour,
	}, m, log)

	// The local dev user always exists with a full set of baselines.
	localID, err := svc.ResolveUser(ctx, "local", "Local Dev User")
	if err != nil {
		log.Error("failed to prepare local user", "error", err)
		os.Exit(1)
	}
	log.Info("local user ready", "user_id", localID)

	srv := server.New(svc, server.Options{APIKey: cfg.Auth.APIKey, Metrics: m, Gatherer: reg}, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(fitmcp.New(svc, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
			Logf:     func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...), "component", "tsnet") },
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// openStore opens the configured backend. With migrateOnly it applies
// PostgreSQL migrations and returns a nil store.
func openStore(ctx context.Context, db config.DatabaseConfig, migrateOnly bool, log *slog.Logger) (training.Store, func(), error) {
	switch db.Driver {
	case config.DriverSQLite:
		if migrateOnly {
			return nil, nil, nil
		}
		s, err := localstore.Open(ctx, db.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("sqlite store opened", "path", s.Path())
		return s, func() { closeQuietly(s, log) }, nil

	case config.DriverMemory:
		if migrateOnly {
			return nil, nil, nil
		}
		log.Warn("using in-memory store, data is lost on exit")
		return training.NewMemStore(), func() {}, nil

	default:
		dsn := db.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, nil, nil
		}
		pg, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected")
		return pg, pg.Close, nil
	}
}

func closeQuietly(c io.Closer, log *slog.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("close failed", "error", err)
	}
}
