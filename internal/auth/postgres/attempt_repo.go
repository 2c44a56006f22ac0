// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package postgres

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

// LoginAttemptRepository implements auth.LoginAttemptRepository using
// PostgreSQL. The table is append-only.
type LoginAttemptRepository struct {
	db DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository.
func NewLoginAttemptRepository(db DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// Record appends a login attempt.
func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *auth.LoginAttempt) error {
	var userID, sessionID *string
	if attempt.UserID != nil {
		s := attempt.UserID.String()
		userID = &s
	}
	if attempt.SessionID != nil {
		s := attempt.SessionID.String()
		sessionID = &s
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (
			id, email, ip_address, user_agent, is_successful,
			failure_reason, user_id, session_id, attempted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		attempt.ID.String(),
		attempt.Email,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.IsSuccessful,
		attempt.FailureReason,
		userID,
		sessionID,
		attempt.AttemptedAt,
	)
	if err != nil {
		return oops.Code("ATTEMPT_RECORD_FAILED").
			With("operation", "insert login attempt").
			Wrap(err)
	}
	return nil
}

// CountRecentFailures counts failed attempts for the email within the
// rolling window ending now.
func (r *LoginAttemptRepository) CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM login_attempts
		WHERE email = $1
		  AND is_successful = FALSE
		  AND attempted_at >= $2
	`, email, time.Now().Add(-window)).Scan(&count)
	if err != nil {
		return 0, oops.Code("ATTEMPT_COUNT_FAILED").
			With("operation", "count recent failures").
			Wrap(err)
	}
	return count, nil
}

// Compile-time interface check.
var _ auth.LoginAttemptRepository = (*LoginAttemptRepository)(nil)
