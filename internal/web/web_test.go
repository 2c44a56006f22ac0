// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package web_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/auth/mocks"
	"github.com/knightappsdev/driveuk-sub000/internal/web"
)

// testEnv wires a web.Server onto mocked repositories. The signer, the
// session store logic, and the cookie builder are real.
type testEnv struct {
	users         *mocks.MockUserRepository
	profiles      *mocks.MockProfileRepository
	sessionRepo   *mocks.MockSessionRepository
	attempts      *mocks.MockLoginAttemptRepository
	hasher        *mocks.MockPasswordHasher
	verifications *mocks.MockVerificationTokenRepository
	resetRepo     *mocks.MockPasswordResetTokenRepository
	activity      *mocks.MockActivityLogRepository
	mailer        *mocks.MockMailer
	signer        *auth.TokenSigner
	guard         *web.Guard
	server        *web.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:         mocks.NewMockUserRepository(t),
		profiles:      mocks.NewMockProfileRepository(t),
		sessionRepo:   mocks.NewMockSessionRepository(t),
		attempts:      mocks.NewMockLoginAttemptRepository(t),
		hasher:        mocks.NewMockPasswordHasher(t),
		verifications: mocks.NewMockVerificationTokenRepository(t),
		resetRepo:     mocks.NewMockPasswordResetTokenRepository(t),
		activity:      mocks.NewMockActivityLogRepository(t),
		mailer:        mocks.NewMockMailer(t),
	}

	sessions, err := auth.NewSessionStore(env.sessionRepo, time.Hour)
	require.NoError(t, err)
	limiter, err := auth.NewAttemptLimiter(env.attempts, auth.MaxLoginAttempts, auth.LoginAttemptWindow)
	require.NoError(t, err)
	signer, err := auth.NewTokenSigner("test-secret", time.Hour)
	require.NoError(t, err)
	env.signer = signer

	logger := slog.Default()
	svc, err := auth.NewService(auth.ServiceDeps{
		Users:         env.users,
		Profiles:      env.profiles,
		Sessions:      sessions,
		Limiter:       limiter,
		Hasher:        env.hasher,
		Signer:        signer,
		Verifications: env.verifications,
		Activity:      env.activity,
		Mailer:        env.mailer,
		Cookies:       auth.NewCookieBuilder(false, time.Hour),
		Logger:        logger,
	})
	require.NoError(t, err)

	resets, err := auth.NewPasswordResetService(env.users, env.resetRepo, sessions, env.hasher, env.mailer, logger)
	require.NoError(t, err)

	env.guard = web.NewGuard(svc, logger)
	server, err := web.NewServer(web.ServerDeps{
		Auth:   svc,
		Resets: resets,
		Guard:  env.guard,
		Logger: logger,
	})
	require.NoError(t, err)
	env.server = server

	return env
}
