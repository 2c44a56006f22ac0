// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// StudentProfile is created alongside a student account and is usable
// immediately.
type StudentProfile struct {
	ID            ulid.ULID
	UserID        ulid.ULID
	LicenseNumber *string
	PostalCode    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InstructorProfile is created alongside an instructor account with
// IsActive=false. A separate admin approval step activates it; until
// then the instructor cannot take bookings.
type InstructorProfile struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	ADINumber string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registration is the role-tagged registration input. Required-field
// completeness per role is enforced by the concrete type, not by
// nullable fields shared across roles.
type Registration interface {
	// Core returns the fields common to every registration.
	Core() RegistrationCore

	// Role returns the role the registration creates.
	Role() Role

	// validate checks role-specific required fields.
	validate() error
}

// RegistrationCore holds the fields every registration requires.
type RegistrationCore struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// StudentRegistration registers a student account.
type StudentRegistration struct {
	RegistrationCore
	LicenseNumber *string
	PostalCode    *string
}

// Core implements Registration.
func (r StudentRegistration) Core() RegistrationCore { return r.RegistrationCore }

// Role implements Registration.
func (r StudentRegistration) Role() Role { return RoleStudent }

func (r StudentRegistration) validate() error { return nil }

// InstructorRegistration registers an instructor account pending admin
// approval.
type InstructorRegistration struct {
	RegistrationCore
	ADINumber string
}

// Core implements Registration.
func (r InstructorRegistration) Core() RegistrationCore { return r.RegistrationCore }

// Role implements Registration.
func (r InstructorRegistration) Role() Role { return RoleInstructor }

func (r InstructorRegistration) validate() error {
	if r.ADINumber == "" {
		return oops.Code("AUTH_VALIDATION").Errorf("ADI number is required for instructors")
	}
	return nil
}

// ProfileRepository manages role-specific profile persistence.
type ProfileRepository interface {
	// CreateStudent stores a student profile.
	CreateStudent(ctx context.Context, profile *StudentProfile) error

	// CreateInstructor stores an instructor profile.
	CreateInstructor(ctx context.Context, profile *InstructorProfile) error

	// GetInstructorByUser retrieves an instructor profile by owning user.
	GetInstructorByUser(ctx context.Context, userID ulid.ULID) (*InstructorProfile, error)

	// ApproveInstructor activates an instructor profile.
	ApproveInstructor(ctx context.Context, userID ulid.ULID) error
}
