// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

// VerificationTokenRepository implements auth.VerificationTokenRepository
// using PostgreSQL.
type VerificationTokenRepository struct {
	db DB
}

// NewVerificationTokenRepository creates a new VerificationTokenRepository.
func NewVerificationTokenRepository(db DB) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db}
}

// Create stores a new verification token.
func (r *VerificationTokenRepository) Create(ctx context.Context, token *auth.VerificationToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO verification_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert verification token").
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a verification token by its hash.
func (r *VerificationTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.VerificationToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM verification_tokens
		WHERE token_hash = $1
	`, tokenHash)

	var (
		idStr     string
		userIDStr string
		hash      string
		expiresAt time.Time
		createdAt time.Time
	)
	err := row.Scan(&idStr, &userIDStr, &hash, &expiresAt, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get verification token").
			Wrap(err)
	}

	id, userID, err := parseTokenIDs(idStr, userIDStr)
	if err != nil {
		return nil, err
	}
	return &auth.VerificationToken{
		ID:        id,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// DeleteByUser removes all verification tokens for a user.
func (r *VerificationTokenRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM verification_tokens WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete verification tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes expired verification tokens.
func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM verification_tokens WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, oops.Code("TOKEN_PRUNE_FAILED").
			With("operation", "delete expired verification tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// PasswordResetTokenRepository implements auth.PasswordResetTokenRepository
// using PostgreSQL.
type PasswordResetTokenRepository struct {
	db DB
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository.
func NewPasswordResetTokenRepository(db DB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: db}
}

// Create stores a new reset token.
func (r *PasswordResetTokenRepository) Create(ctx context.Context, token *auth.PasswordResetToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert reset token").
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a reset token by its hash.
func (r *PasswordResetTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, tokenHash)

	var (
		idStr     string
		userIDStr string
		hash      string
		expiresAt time.Time
		createdAt time.Time
	)
	err := row.Scan(&idStr, &userIDStr, &hash, &expiresAt, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get reset token").
			Wrap(err)
	}

	id, userID, err := parseTokenIDs(idStr, userIDStr)
	if err != nil {
		return nil, err
	}
	return &auth.PasswordResetToken{
		ID:        id,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// DeleteByUser removes all reset tokens for a user.
func (r *PasswordResetTokenRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM password_reset_tokens WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete reset tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes expired reset tokens.
func (r *PasswordResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM password_reset_tokens WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, oops.Code("TOKEN_PRUNE_FAILED").
			With("operation", "delete expired reset tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func parseTokenIDs(idStr, userIDStr string) (id, userID ulid.ULID, err error) {
	id, err = ulid.Parse(idStr)
	if err != nil {
		return id, userID, oops.Code("TOKEN_INVALID_ID").With("id", idStr).Wrap(err)
	}
	userID, err = ulid.Parse(userIDStr)
	if err != nil {
		return id, userID, oops.Code("TOKEN_INVALID_USER_ID").With("user_id", userIDStr).Wrap(err)
	}
	return id, userID, nil
}

// Compile-time interface checks.
var (
	_ auth.VerificationTokenRepository  = (*VerificationTokenRepository)(nil)
	_ auth.PasswordResetTokenRepository = (*PasswordResetTokenRepository)(nil)
)
