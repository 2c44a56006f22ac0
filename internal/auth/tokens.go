// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Single-use token configuration.
const (
	OneTimeTokenLength    = 48             // alphanumeric chars
	VerificationTokenTTL  = 24 * time.Hour // email verification
	PasswordResetTokenTTL = time.Hour      // password reset
)

// VerificationToken confirms ownership of an email address. Single-use,
// 24 hour lifetime.
type VerificationToken struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the verification token has expired.
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// NewVerificationToken creates a validated VerificationToken.
func NewVerificationToken(userID ulid.ULID, tokenHash string, expiresAt time.Time) (*VerificationToken, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &VerificationToken{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// PasswordResetToken authorizes one password reset. Single-use, 1 hour
// lifetime.
type PasswordResetToken struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the reset token has expired.
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// NewPasswordResetToken creates a validated PasswordResetToken.
func NewPasswordResetToken(userID ulid.ULID, tokenHash string, expiresAt time.Time) (*PasswordResetToken, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return &PasswordResetToken{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GenerateOneTimeToken creates a random alphanumeric token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext goes out
// in the mail; only the hash is stored.
func GenerateOneTimeToken() (token, hash string, err error) {
	token, err = GenerateSecureToken(OneTimeTokenLength)
	if err != nil {
		return "", "", err
	}
	return token, HashOneTimeToken(token), nil
}

// HashOneTimeToken computes the SHA256 hash of a one-time token.
func HashOneTimeToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyOneTimeToken checks a plaintext token against the stored hash in
// constant time.
func VerifyOneTimeToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashOneTimeToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// VerificationTokenRepository manages email verification tokens.
type VerificationTokenRepository interface {
	// Create stores a new verification token.
	Create(ctx context.Context, token *VerificationToken) error

	// GetByTokenHash retrieves a token by its hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*VerificationToken, error)

	// DeleteByUser removes all verification tokens for a user.
	DeleteByUser(ctx context.Context, userID ulid.ULID) error

	// DeleteExpired removes expired tokens and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PasswordResetTokenRepository manages password reset tokens.
type PasswordResetTokenRepository interface {
	// Create stores a new reset token.
	Create(ctx context.Context, token *PasswordResetToken) error

	// GetByTokenHash retrieves a token by its hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)

	// DeleteByUser removes all reset tokens for a user.
	DeleteByUser(ctx context.Context, userID ulid.ULID) error

	// DeleteExpired removes expired tokens and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
