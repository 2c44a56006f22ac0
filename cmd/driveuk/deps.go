// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package main

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/auth/postgres"
	"github.com/knightappsdev/driveuk-sub000/internal/config"
	"github.com/knightappsdev/driveuk-sub000/internal/mailer"
	"github.com/knightappsdev/driveuk-sub000/internal/web"
)

// services bundles the wired application services for the serve command.
type services struct {
	auth    *auth.Service
	resets  *auth.PasswordResetService
	janitor *auth.Janitor
	guard   *web.Guard
}

// buildServices wires the repositories and domain services onto the
// connection pool.
func buildServices(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*services, error) {
	users := postgres.NewUserRepository(pool)
	profiles := postgres.NewProfileRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	attempts := postgres.NewLoginAttemptRepository(pool)
	verifications := postgres.NewVerificationTokenRepository(pool)
	resetTokens := postgres.NewPasswordResetTokenRepository(pool)
	activity := postgres.NewActivityLogRepository(pool)

	sessions, err := auth.NewSessionStore(sessionRepo, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}
	limiter, err := auth.NewAttemptLimiter(attempts, cfg.Auth.MaxAttempts, cfg.Auth.AttemptWindow)
	if err != nil {
		return nil, err
	}
	signer, err := auth.NewTokenSigner(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}

	outbound, err := buildMailer(logger)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2idHasher()

	svc, err := auth.NewService(auth.ServiceDeps{
		Users:         users,
		Profiles:      profiles,
		Sessions:      sessions,
		Limiter:       limiter,
		Hasher:        hasher,
		Signer:        signer,
		Verifications: verifications,
		Activity:      activity,
		Mailer:        outbound,
		Cookies:       auth.NewCookieBuilder(cfg.Production(), cfg.Auth.SessionTTL),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	resets, err := auth.NewPasswordResetService(users, resetTokens, sessions, hasher, outbound, logger)
	if err != nil {
		return nil, err
	}

	janitor, err := auth.NewJanitor(sessionRepo, verifications, resetTokens, logger)
	if err != nil {
		return nil, err
	}

	return &services{
		auth:    svc,
		resets:  resets,
		janitor: janitor,
		guard:   web.NewGuard(svc, logger),
	}, nil
}

// buildMailer returns the SMTP mailer when SMTP is configured, otherwise
// a logging mailer so development setups work without a mail server.
func buildMailer(logger *slog.Logger) (auth.Mailer, error) {
	cfg, err := mailer.LoadSMTPConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Configured() {
		logger.Warn("SMTP not configured, verification and reset tokens will be logged instead of emailed")
		return mailer.NewLogMailer(logger), nil
	}
	m, err := mailer.New(cfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}
