// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Lockout policy. The lockout is purely a function of the rolling
// window: no lock flag is persisted, and the lockout lifts by itself as
// old failures age out.
const (
	MaxLoginAttempts     = 5
	LoginAttemptWindow   = 15 * time.Minute
	FailureUserNotFound  = "user_not_found"
	FailureBadPassword   = "invalid_password"
	FailureAccountLocked = "account_locked"
	FailureDisabled      = "account_disabled"
)

// LoginAttempt is an append-only record of one login call. Attempts are
// never mutated or deleted; they exist only for windowed counting and
// audit.
type LoginAttempt struct {
	ID            ulid.ULID
	Email         string
	IPAddress     string
	UserAgent     string
	IsSuccessful  bool
	FailureReason *string
	UserID        *ulid.ULID
	SessionID     *ulid.ULID
	AttemptedAt   time.Time
}

// LoginAttemptRepository manages the append-only attempt log.
type LoginAttemptRepository interface {
	// Record appends an attempt. No deduplication is performed.
	Record(ctx context.Context, attempt *LoginAttempt) error

	// CountRecentFailures counts failed attempts for the email with a
	// timestamp within [now - window, now].
	CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error)
}

// AttemptLimiter evaluates the rolling-window lockout policy over the
// attempt log.
type AttemptLimiter struct {
	attempts LoginAttemptRepository
	max      int
	window   time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter. Non-positive max or
// window fall back to the policy defaults.
func NewAttemptLimiter(attempts LoginAttemptRepository, max int, window time.Duration) (*AttemptLimiter, error) {
	if attempts == nil {
		return nil, oops.Errorf("attempts repository is required")
	}
	if max <= 0 {
		max = MaxLoginAttempts
	}
	if window <= 0 {
		window = LoginAttemptWindow
	}
	return &AttemptLimiter{attempts: attempts, max: max, window: window}, nil
}

// Allow reports whether a login attempt for the email may proceed.
// Concurrent calls can admit slightly more than the limit; the
// read-then-compare is intentionally not linearizable.
func (l *AttemptLimiter) Allow(ctx context.Context, email string) (bool, error) {
	failures, err := l.attempts.CountRecentFailures(ctx, NormalizeEmail(email), l.window)
	if err != nil {
		return false, oops.Code("ATTEMPT_COUNT_FAILED").
			With("operation", "count recent failures").
			Wrap(err)
	}
	return failures < l.max, nil
}

// RecordFailure appends a failed attempt.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, email, ip, userAgent, reason string, userID *ulid.ULID) error {
	attempt := &LoginAttempt{
		ID:            ulid.Make(),
		Email:         NormalizeEmail(email),
		IPAddress:     ip,
		UserAgent:     userAgent,
		FailureReason: &reason,
		UserID:        userID,
		AttemptedAt:   time.Now(),
	}
	if err := l.attempts.Record(ctx, attempt); err != nil {
		return oops.Code("ATTEMPT_RECORD_FAILED").Wrap(err)
	}
	return nil
}

// RecordSuccess appends a successful attempt linked to the new session.
func (l *AttemptLimiter) RecordSuccess(ctx context.Context, email, ip, userAgent string, userID, sessionID ulid.ULID) error {
	attempt := &LoginAttempt{
		ID:           ulid.Make(),
		Email:        NormalizeEmail(email),
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsSuccessful: true,
		UserID:       &userID,
		SessionID:    &sessionID,
		AttemptedAt:  time.Now(),
	}
	if err := l.attempts.Record(ctx, attempt); err != nil {
		return oops.Code("ATTEMPT_RECORD_FAILED").Wrap(err)
	}
	return nil
}
