// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/auth/postgres"
)

func TestVerificationTokenRepository_GetByTokenHash(t *testing.T) {
	tokenID := ulid.Make()
	userID := ulid.Make()
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "returns the token for a known hash",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
					AddRow(tokenID.String(), userID.String(), "somehash", now.Add(24*time.Hour), now)
				mock.ExpectQuery(`SELECT id, user_id, token_hash, expires_at, created_at`).
					WithArgs("somehash").
					WillReturnRows(rows)
			},
		},
		{
			name: "returns ErrNotFound for unknown hash",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, user_id, token_hash, expires_at, created_at`).
					WithArgs("somehash").
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}))
			},
			wantErr: auth.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := postgres.NewVerificationTokenRepository(mock)
			got, err := repo.GetByTokenHash(context.Background(), "somehash")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tokenID, got.ID)
				assert.Equal(t, userID, got.UserID)
				assert.Equal(t, "somehash", got.TokenHash)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestVerificationTokenRepository_Create(t *testing.T) {
	token, err := auth.NewVerificationToken(ulid.Make(), "hash", time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	t.Run("inserts the token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO verification_tokens`).
			WithArgs(token.ID.String(), token.UserID.String(), token.TokenHash,
				token.ExpiresAt, token.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := postgres.NewVerificationTokenRepository(mock)
		require.NoError(t, repo.Create(context.Background(), token))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO verification_tokens`).
			WillReturnError(errors.New("connection refused"))

		repo := postgres.NewVerificationTokenRepository(mock)
		err = repo.Create(context.Background(), token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestPasswordResetTokenRepository_DeleteByUser(t *testing.T) {
	userID := ulid.Make()

	t.Run("deletes all tokens for the user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM password_reset_tokens WHERE user_id`).
			WithArgs(userID.String()).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))

		repo := postgres.NewPasswordResetTokenRepository(mock)
		require.NoError(t, repo.DeleteByUser(context.Background(), userID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPasswordResetTokenRepository_DeleteExpired(t *testing.T) {
	t.Run("returns the number of pruned tokens", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM password_reset_tokens WHERE expires_at`).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		repo := postgres.NewPasswordResetTokenRepository(mock)
		count, err := repo.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
