// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/auth/postgres"
)

func TestProfileRepository_CreateStudent(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewProfileRepository(testPool)
	user := createTestUser(ctx, t, "profile_student@example.com")

	t.Run("creates a student profile", func(t *testing.T) {
		license := "JONES123456AB7CD"
		profile := &auth.StudentProfile{
			ID:            ulid.Make(),
			UserID:        user.ID,
			LicenseNumber: &license,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		err := repo.CreateStudent(ctx, profile)
		require.NoError(t, err)

		t.Cleanup(func() {
			_, _ = testPool.Exec(ctx, `DELETE FROM student_profiles WHERE id = $1`, profile.ID.String())
		})
	})

	t.Run("rejects a second profile for the same user", func(t *testing.T) {
		dupe := &auth.StudentProfile{
			ID:        ulid.Make(),
			UserID:    user.ID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		err := repo.CreateStudent(ctx, dupe)
		assert.ErrorIs(t, err, auth.ErrDuplicate)
	})
}

func TestProfileRepository_Instructor(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewProfileRepository(testPool)
	user := createTestUser(ctx, t, "profile_instructor@example.com")

	profile := &auth.InstructorProfile{
		ID:        ulid.Make(),
		UserID:    user.ID,
		ADINumber: "123456",
		IsActive:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateInstructor(ctx, profile))

	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM instructor_profiles WHERE id = $1`, profile.ID.String())
	})

	t.Run("new instructor profile starts inactive", func(t *testing.T) {
		stored, err := repo.GetInstructorByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "123456", stored.ADINumber)
		assert.False(t, stored.IsActive)
	})

	t.Run("approval activates the profile", func(t *testing.T) {
		require.NoError(t, repo.ApproveInstructor(ctx, user.ID))

		stored, err := repo.GetInstructorByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsActive)
	})

	t.Run("returns ErrNotFound for unknown user", func(t *testing.T) {
		_, err := repo.GetInstructorByUser(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)

		err = repo.ApproveInstructor(ctx, ulid.Make())
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
