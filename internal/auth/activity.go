// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Activity actions recorded by the auth flows.
const (
	ActionRegister      = "register"
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionVerifyEmail   = "verify_email"
	ActionPasswordReset = "password_reset"
)

// ActivityEntry is one row in the account activity log.
type ActivityEntry struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Action    string
	Details   string
	IPAddress string
	CreatedAt time.Time
}

// NewActivityEntry creates an activity log entry.
func NewActivityEntry(userID ulid.ULID, action, details, ip string) *ActivityEntry {
	return &ActivityEntry{
		ID:        ulid.Make(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: ip,
		CreatedAt: time.Now(),
	}
}

// ActivityLogRepository manages the append-only activity log.
type ActivityLogRepository interface {
	// Append stores an activity entry.
	Append(ctx context.Context, entry *ActivityEntry) error

	// ListByUser retrieves recent entries for a user, newest first.
	ListByUser(ctx context.Context, userID ulid.ULID, limit int) ([]*ActivityEntry, error)
}
