// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/knightappsdev/driveuk-sub000/internal/config"
	"github.com/knightappsdev/driveuk-sub000/internal/logging"
	"github.com/knightappsdev/driveuk-sub000/internal/observability"
	"github.com/knightappsdev/driveuk-sub000/internal/store"
	"github.com/knightappsdev/driveuk-sub000/internal/web"
)

// Timeouts for the serve command.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	readinessTimeout  = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth HTTP service",
		Long: `Start the HTTP service that handles registration, login, sessions,
email verification, password resets, and instructor approval.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	// Flag names match the config file keys so the two sources merge.
	cmd.Flags().String("http_addr", defaults.HTTPAddr, "HTTP listen address")
	cmd.Flags().String("metrics_addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log_format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().String("environment", defaults.Environment, "runtime environment (development or production)")

	return cmd
}

// runServe starts the auth service and blocks until a shutdown signal
// or a fatal server error.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("driveuk", version, cfg.LogFormat)
	logger := slog.Default()

	slog.Info("starting auth service",
		"http_addr", cfg.HTTPAddr,
		"environment", cfg.Environment,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	slog.Info("connected to database")

	wired, err := buildServices(cfg, pool, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), readinessTimeout)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			return obsErr
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
	}

	server, err := web.NewServer(web.ServerDeps{
		Auth:    wired.auth,
		Resets:  wired.resets,
		Guard:   wired.guard,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	go wired.janitor.Run(ctx, cfg.Auth.SweepInterval)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	cmd.Println("Auth service started")
	slog.Info("auth service ready", "http_addr", cfg.HTTPAddr)

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case serveErr := <-errCh:
		return oops.Code("HTTP_SERVER_FAILED").With("addr", cfg.HTTPAddr).Wrap(serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error shutting down HTTP server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failed auxiliary server takes the process down
// gracefully. It exits when an error arrives, the channel closes, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
