// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/pkg/errutil"
)

// Janitor prunes expired sessions and one-time tokens from the
// database. Expiry checks at read time already keep stale rows from
// being honored; the janitor only reclaims the storage.
type Janitor struct {
	sessions      SessionRepository
	verifications VerificationTokenRepository
	resets        PasswordResetTokenRepository
	logger        *slog.Logger
}

// NewJanitor creates a Janitor.
func NewJanitor(
	sessions SessionRepository,
	verifications VerificationTokenRepository,
	resets PasswordResetTokenRepository,
	logger *slog.Logger,
) (*Janitor, error) {
	switch {
	case sessions == nil:
		return nil, oops.Errorf("sessions repository is required")
	case verifications == nil:
		return nil, oops.Errorf("verification token repository is required")
	case resets == nil:
		return nil, oops.Errorf("reset token repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sessions:      sessions,
		verifications: verifications,
		resets:        resets,
		logger:        logger,
	}, nil
}

// SweepOnce deletes every expired session, verification token, and
// reset token. A failure in one sweep is logged and does not stop the
// others.
func (j *Janitor) SweepOnce(ctx context.Context) {
	sessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		errutil.LogError(j.logger, "failed to prune expired sessions", err)
	}

	verifications, err := j.verifications.DeleteExpired(ctx)
	if err != nil {
		errutil.LogError(j.logger, "failed to prune expired verification tokens", err)
	}

	resets, err := j.resets.DeleteExpired(ctx)
	if err != nil {
		errutil.LogError(j.logger, "failed to prune expired reset tokens", err)
	}

	if sessions+verifications+resets > 0 {
		j.logger.Info("pruned expired records",
			"sessions", sessions,
			"verification_tokens", verifications,
			"reset_tokens", resets,
		)
	}
}

// Run sweeps at the given interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}
