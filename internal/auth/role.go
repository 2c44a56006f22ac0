// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import "github.com/samber/oops"

// Role is a closed set of account roles.
type Role string

// Account roles.
const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Post-login destinations.
const (
	PathLogin        = "/login"
	PathVerifyEmail  = "/verify-email"
	PathUnauthorized = "/unauthorized"

	pathAdminHome      = "/admin"
	pathInstructorHome = "/instructor"
	pathStudentHome    = "/dashboard"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return Role(s), nil
	}
	return "", oops.Code("AUTH_INVALID_ROLE").With("role", s).Errorf("unknown role: %q", s)
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// LandingPath returns the default destination after login for the role.
func (r Role) LandingPath() string {
	switch r {
	case RoleAdmin:
		return pathAdminHome
	case RoleInstructor:
		return pathInstructorHome
	default:
		return pathStudentHome
	}
}

func (r Role) String() string { return string(r) }
