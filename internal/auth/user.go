// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Name length constraints.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// emailRegex is a pragmatic check; the mailbox is confirmed by the
// verification mail, not by the regex.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a platform account. Accounts are never hard-deleted;
// deactivation flips IsActive.
type User struct {
	ID              ulid.ULID
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	IsActive        bool
	IsBlocked       bool
	IsEmailVerified bool
	ProfilePicture  *string
	LastLoginAt     *time.Time
	LastLoginIP     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUser creates a validated User. The email is normalized to lower
// case; the account starts active, unblocked, and unverified.
func NewUser(email, passwordHash, firstName, lastName string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_USER").Errorf("password hash cannot be empty")
	}
	if firstName == "" || lastName == "" {
		return nil, oops.Code("AUTH_INVALID_USER").Errorf("first and last name are required")
	}
	if len(firstName) > MaxNameLength || len(lastName) > MaxNameLength {
		return nil, oops.Code("AUTH_INVALID_USER").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").With("role", role).Errorf("unknown role: %q", role)
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanLogin reports whether the account may hold a valid session.
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsBlocked
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email is not a valid address")
	}
	return nil
}

// UserView is the read-only projection returned to callers. It never
// carries the password hash.
type UserView struct {
	ID              ulid.ULID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	ProfilePicture  *string   `json:"profilePicture,omitempty"`
	SessionID       ulid.ULID `json:"sessionId"`
}

// View projects the user for a given session.
func (u *User) View(sessionID ulid.ULID) *UserView {
	return &UserView{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsEmailVerified: u.IsEmailVerified,
		ProfilePicture:  u.ProfilePicture,
		SessionID:       sessionID,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicate (wrapped) if the
	// email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *User) error

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// RecordLogin updates last_login_at and last_login_ip.
	RecordLogin(ctx context.Context, id ulid.ULID, at time.Time, ip string) error

	// SetEmailVerified marks the user's email as verified.
	SetEmailVerified(ctx context.Context, id ulid.ULID) error
}
