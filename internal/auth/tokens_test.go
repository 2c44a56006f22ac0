// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

func TestGenerateOneTimeToken(t *testing.T) {
	token, hash, err := auth.GenerateOneTimeToken()
	require.NoError(t, err)

	assert.Len(t, token, auth.OneTimeTokenLength)
	assert.Equal(t, auth.HashOneTimeToken(token), hash)
	assert.NotEqual(t, token, hash, "plaintext must never equal the stored hash")
}

func TestVerifyOneTimeToken(t *testing.T) {
	token, hash, err := auth.GenerateOneTimeToken()
	require.NoError(t, err)

	assert.True(t, auth.VerifyOneTimeToken(token, hash))
	assert.False(t, auth.VerifyOneTimeToken("wrong-token", hash))
	assert.False(t, auth.VerifyOneTimeToken("", hash))
	assert.False(t, auth.VerifyOneTimeToken(token, ""))
}

func TestNewVerificationToken(t *testing.T) {
	userID := ulid.Make()
	expiry := time.Now().Add(auth.VerificationTokenTTL)

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.NewVerificationToken(userID, "hash", expiry)
		require.NoError(t, err)
		assert.Equal(t, userID, token.UserID)
		assert.False(t, token.IsExpired())
	})

	t.Run("zero user is rejected", func(t *testing.T) {
		_, err := auth.NewVerificationToken(ulid.ULID{}, "hash", expiry)
		require.Error(t, err)
	})

	t.Run("empty hash is rejected", func(t *testing.T) {
		_, err := auth.NewVerificationToken(userID, "", expiry)
		require.Error(t, err)
	})

	t.Run("zero expiry is rejected", func(t *testing.T) {
		_, err := auth.NewVerificationToken(userID, "hash", time.Time{})
		require.Error(t, err)
	})

	t.Run("past expiry reads as expired", func(t *testing.T) {
		token, err := auth.NewVerificationToken(userID, "hash", time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, token.IsExpired())
	})
}

func TestNewPasswordResetToken(t *testing.T) {
	userID := ulid.Make()

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.NewPasswordResetToken(userID, "hash", time.Now().Add(auth.PasswordResetTokenTTL))
		require.NoError(t, err)
		assert.Equal(t, userID, token.UserID)
		assert.False(t, token.IsExpired())
	})

	t.Run("zero user is rejected", func(t *testing.T) {
		_, err := auth.NewPasswordResetToken(ulid.ULID{}, "hash", time.Now().Add(time.Hour))
		require.Error(t, err)
	})
}
