// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

// ProfileRepository implements auth.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateStudent stores a student profile.
func (r *ProfileRepository) CreateStudent(ctx context.Context, profile *auth.StudentProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO student_profiles (id, user_id, license_number, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		profile.ID.String(),
		profile.UserID.String(),
		profile.LicenseNumber,
		profile.PostalCode,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("PROFILE_DUPLICATE").
				With("user_id", profile.UserID.String()).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert student profile").
			Wrap(err)
	}
	return nil
}

// CreateInstructor stores an instructor profile.
func (r *ProfileRepository) CreateInstructor(ctx context.Context, profile *auth.InstructorProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO instructor_profiles (id, user_id, adi_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		profile.ID.String(),
		profile.UserID.String(),
		profile.ADINumber,
		profile.IsActive,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("PROFILE_DUPLICATE").
				With("user_id", profile.UserID.String()).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert instructor profile").
			Wrap(err)
	}
	return nil
}

// GetInstructorByUser retrieves an instructor profile by owning user.
func (r *ProfileRepository) GetInstructorByUser(ctx context.Context, userID ulid.ULID) (*auth.InstructorProfile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, adi_number, is_active, created_at, updated_at
		FROM instructor_profiles
		WHERE user_id = $1
	`, userID.String())

	var (
		idStr     string
		userIDStr string
		adiNumber string
		isActive  bool
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&idStr, &userIDStr, &adiNumber, &isActive, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get instructor profile").
			With("user_id", userID.String()).
			Wrap(err)
	}

	id, parsedUserID, err := parseTokenIDs(idStr, userIDStr)
	if err != nil {
		return nil, err
	}
	return &auth.InstructorProfile{
		ID:        id,
		UserID:    parsedUserID,
		ADINumber: adiNumber,
		IsActive:  isActive,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// ApproveInstructor activates an instructor profile.
func (r *ProfileRepository) ApproveInstructor(ctx context.Context, userID ulid.ULID) error {
	result, err := r.db.Exec(ctx, `
		UPDATE instructor_profiles SET is_active = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return oops.Code("PROFILE_APPROVE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROFILE_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.ProfileRepository = (*ProfileRepository)(nil)
