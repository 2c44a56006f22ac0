// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/auth/mocks"
)

func TestGenerateSessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, token, auth.SessionTokenBytes*2, "token should be hex-encoded")
	assert.Equal(t, auth.HashSessionToken(token), hash)
	assert.True(t, auth.VerifySessionToken(token, hash))
	assert.False(t, auth.VerifySessionToken("other", hash))
}

func TestNewSession(t *testing.T) {
	userID := ulid.Make()
	expiry := time.Now().Add(time.Hour)

	t.Run("valid session", func(t *testing.T) {
		session, err := auth.NewSession(userID, "hash", "203.0.113.9", "agent", expiry)
		require.NoError(t, err)
		assert.True(t, session.IsActive)
		assert.True(t, session.IsValid())
		assert.False(t, session.IsExpired())
	})

	t.Run("zero user is rejected", func(t *testing.T) {
		_, err := auth.NewSession(ulid.ULID{}, "hash", "", "", expiry)
		require.Error(t, err)
	})

	t.Run("empty hash is rejected", func(t *testing.T) {
		_, err := auth.NewSession(userID, "", "", "", expiry)
		require.Error(t, err)
	})

	t.Run("revoked session is invalid", func(t *testing.T) {
		session, err := auth.NewSession(userID, "hash", "", "", expiry)
		require.NoError(t, err)
		session.IsActive = false
		assert.False(t, session.IsValid())
	})

	t.Run("expired session is invalid", func(t *testing.T) {
		session, err := auth.NewSession(userID, "hash", "", "", time.Now().Add(time.Minute))
		require.NoError(t, err)
		session.ExpiresAt = time.Now().Add(-time.Minute)
		assert.False(t, session.IsValid())
	})
}

func TestSessionStore_Create(t *testing.T) {
	ctx := context.Background()
	userID := ulid.Make()

	t.Run("persists a session with the configured ttl", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		var created *auth.Session
		repo.On("Create", mock.Anything, mock.AnythingOfType("*auth.Session")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*auth.Session)
			}).
			Return(nil)

		session, token, err := store.Create(ctx, userID, "203.0.113.9", "agent")
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, session, created)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, auth.HashSessionToken(token), session.TokenHash, "only the hash is persisted")
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		_, _, err = store.Create(ctx, userID, "", "")
		require.Error(t, err)
	})
}

func TestSessionStore_Validate(t *testing.T) {
	ctx := context.Background()
	userID := ulid.Make()

	newActiveSession := func(t *testing.T) *auth.Session {
		t.Helper()
		session, err := auth.NewSession(userID, "hash", "", "", time.Now().Add(time.Hour))
		require.NoError(t, err)
		return session
	}

	t.Run("valid session is returned and touched", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		session := newActiveSession(t)
		repo.On("GetByID", mock.Anything, session.ID).Return(session, nil)
		repo.On("UpdateLastActivity", mock.Anything, session.ID, mock.AnythingOfType("time.Time")).Return(nil)

		got, err := store.Validate(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
	})

	t.Run("missing session maps to not authenticated", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		id := ulid.Make()
		repo.On("GetByID", mock.Anything, id).Return(nil, auth.ErrNotFound)

		_, err = store.Validate(ctx, id)
		require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("revoked session maps to not authenticated", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		session := newActiveSession(t)
		session.IsActive = false
		repo.On("GetByID", mock.Anything, session.ID).Return(session, nil)

		_, err = store.Validate(ctx, session.ID)
		require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("expired session maps to not authenticated", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		session := newActiveSession(t)
		session.ExpiresAt = time.Now().Add(-time.Minute)
		repo.On("GetByID", mock.Anything, session.ID).Return(session, nil)

		_, err = store.Validate(ctx, session.ID)
		require.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("failed activity touch does not invalidate the session", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		session := newActiveSession(t)
		repo.On("GetByID", mock.Anything, session.ID).Return(session, nil)
		repo.On("UpdateLastActivity", mock.Anything, session.ID, mock.Anything).Return(errors.New("update failed"))

		_, err = store.Validate(ctx, session.ID)
		require.NoError(t, err)
	})
}

func TestSessionStore_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes through the repository", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		id := ulid.Make()
		repo.On("Revoke", mock.Anything, id, mock.AnythingOfType("time.Time")).Return(nil)

		require.NoError(t, store.Revoke(ctx, id))
	})

	t.Run("revokes every session for a user", func(t *testing.T) {
		repo := mocks.NewMockSessionRepository(t)
		store, err := auth.NewSessionStore(repo, time.Hour)
		require.NoError(t, err)

		userID := ulid.Make()
		repo.On("RevokeByUser", mock.Anything, userID, mock.AnythingOfType("time.Time")).Return(nil)

		require.NoError(t, store.RevokeAllForUser(ctx, userID))
	})
}
