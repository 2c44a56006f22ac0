// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/pkg/errutil"
)

// PasswordResetService handles the password reset flow.
type PasswordResetService struct {
	users    UserRepository
	resets   PasswordResetTokenRepository
	sessions *SessionStore
	hasher   PasswordHasher
	mailer   Mailer
	logger   *slog.Logger
}

// NewPasswordResetService creates a PasswordResetService.
func NewPasswordResetService(
	users UserRepository,
	resets PasswordResetTokenRepository,
	sessions *SessionStore,
	hasher PasswordHasher,
	mailer Mailer,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	switch {
	case users == nil:
		return nil, oops.Errorf("users repository is required")
	case resets == nil:
		return nil, oops.Errorf("reset token repository is required")
	case sessions == nil:
		return nil, oops.Errorf("session store is required")
	case hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case mailer == nil:
		return nil, oops.Errorf("mailer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:    users,
		resets:   resets,
		sessions: sessions,
		hasher:   hasher,
		mailer:   mailer,
		logger:   logger,
	}, nil
}

// RequestReset issues a reset token for the account behind the email
// and hands it to the mailer. If the email is unknown the call still
// succeeds with nothing sent, so the response never reveals whether an
// account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	token, hash, err := GenerateOneTimeToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	record, err := NewPasswordResetToken(user.ID, hash, time.Now().Add(PasswordResetTokenTTL))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "build reset token").
			Wrap(err)
	}

	if err := s.resets.Create(ctx, record); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store reset token").
			Wrap(err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		errutil.LogError(s.logger, "failed to send password reset mail", err)
	}
	return nil
}

// ValidateToken validates a reset token and returns the owning user ID.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, ErrTokenInvalid
	}

	record, err := s.resets.GetByTokenHash(ctx, HashOneTimeToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, ErrTokenInvalid
		}
		return ulid.ULID{}, oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "get reset token").
			Wrap(err)
	}
	if record.IsExpired() {
		return ulid.ULID{}, ErrTokenInvalid
	}

	return record.UserID, nil
}

// ResetPassword sets a new password using a valid reset token. All of
// the user's sessions are revoked so stolen tokens die with the old
// password; the reset tokens themselves are consumed.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strength := ValidateStrength(newPassword); !strength.Valid {
		return oops.Code("AUTH_VALIDATION").
			With("errors", strength.Errors).
			Errorf("password does not meet the policy")
	}

	userID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		errutil.LogError(s.logger, "failed to revoke sessions after reset", err)
	}

	// Cleanup; the password was already updated.
	//nolint:errcheck // single-use tokens, best-effort removal
	s.resets.DeleteByUser(ctx, userID)

	return nil
}
