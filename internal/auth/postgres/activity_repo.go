// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package postgres

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

const defaultActivityLimit = 50

// ActivityLogRepository implements auth.ActivityLogRepository using
// PostgreSQL.
type ActivityLogRepository struct {
	db DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Append stores an activity entry.
func (r *ActivityLogRepository) Append(ctx context.Context, entry *auth.ActivityEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID.String(),
		entry.UserID.String(),
		entry.Action,
		entry.Details,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return oops.Code("ACTIVITY_APPEND_FAILED").
			With("operation", "insert activity entry").
			With("action", entry.Action).
			Wrap(err)
	}
	return nil
}

// ListByUser retrieves recent entries for a user, newest first.
func (r *ActivityLogRepository) ListByUser(ctx context.Context, userID ulid.ULID, limit int) ([]*auth.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, details, ip_address, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID.String(), limit)
	if err != nil {
		return nil, oops.Code("ACTIVITY_LIST_FAILED").
			With("operation", "list activity by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var entries []*auth.ActivityEntry
	for rows.Next() {
		var (
			idStr     string
			userIDStr string
			action    string
			details   string
			ipAddress string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &userIDStr, &action, &details, &ipAddress, &createdAt); err != nil {
			return nil, oops.Code("ACTIVITY_SCAN_FAILED").
				With("operation", "scan activity entry").
				Wrap(err)
		}

		id, parsedUserID, err := parseTokenIDs(idStr, userIDStr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &auth.ActivityEntry{
			ID:        id,
			UserID:    parsedUserID,
			Action:    action,
			Details:   details,
			IPAddress: ipAddress,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACTIVITY_LIST_FAILED").
			With("operation", "iterate activity rows").
			Wrap(err)
	}
	return entries, nil
}

// Compile-time interface check.
var _ auth.ActivityLogRepository = (*ActivityLogRepository)(nil)
