// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/pkg/errutil"
)

func TestParseRole(t *testing.T) {
	t.Run("accepts known roles", func(t *testing.T) {
		for _, s := range []string{"admin", "instructor", "student"} {
			role, err := auth.ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, s, role.String())
			assert.True(t, role.Valid())
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		for _, s := range []string{"", "superuser", "Admin", "STUDENT"} {
			_, err := auth.ParseRole(s)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_ROLE")
		}
	})
}

func TestRole_LandingPath(t *testing.T) {
	tests := []struct {
		role auth.Role
		want string
	}{
		{auth.RoleAdmin, "/admin"},
		{auth.RoleInstructor, "/instructor"},
		{auth.RoleStudent, "/dashboard"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.LandingPath())
	}
}
