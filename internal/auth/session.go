// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32                 // 32 bytes = 64 hex chars
	DefaultSessionTTL = 7 * 24 * time.Hour // 7 day expiry
)

// Session is the server-side, revocable record of an authenticated
// device or browser. A session is valid iff it is active, unexpired,
// and its owning user is active and not blocked.
type Session struct {
	ID           ulid.ULID
	UserID       ulid.ULID
	TokenHash    string
	IPAddress    string
	UserAgent    string
	ExpiresAt    time.Time
	IsActive     bool
	RevokedAt    *time.Time
	LastActivity time.Time
	CreatedAt    time.Time
}

// NewSession creates a validated Session. IPAddress and UserAgent are
// optional and may be empty.
func NewSession(userID ulid.ULID, tokenHash, ipAddress, userAgent string, expiresAt time.Time) (*Session, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:           ulid.Make(),
		UserID:       userID,
		TokenHash:    tokenHash,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		ExpiresAt:    expiresAt,
		IsActive:     true,
		LastActivity: now,
		CreatedAt:    now,
	}, nil
}

// IsExpired returns true if the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid returns true if the session is active and unexpired. The
// owning user's state is checked separately by the auth service.
func (s *Session) IsValid() bool {
	return s.IsActive && !s.IsExpired()
}

// GenerateSessionToken creates a secure random opaque token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token is
// never stored; only the hash reaches the database.
func GenerateSessionToken() (token, hash string, err error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	token = hex.EncodeToString(buf)
	hash = HashSessionToken(token)
	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of an opaque session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifySessionToken checks a plaintext token against the stored hash
// using constant-time comparison.
func VerifySessionToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashSessionToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByID retrieves a session by its ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Session, error)

	// GetByUser retrieves all sessions for a user, newest first.
	GetByUser(ctx context.Context, userID ulid.ULID) ([]*Session, error)

	// UpdateLastActivity updates the LastActivity timestamp.
	UpdateLastActivity(ctx context.Context, id ulid.ULID, at time.Time) error

	// Revoke marks the session inactive and records the revocation
	// time. Revoking an already-revoked or missing session is a no-op.
	Revoke(ctx context.Context, id ulid.ULID, at time.Time) error

	// RevokeByUser revokes every active session for a user.
	RevokeByUser(ctx context.Context, userID ulid.ULID, at time.Time) error

	// DeleteExpired removes sessions past their expiry and returns the
	// count of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionStore creates, validates, and revokes sessions. It is the sole
// source of authority for authentication state; signed tokens only ever
// point at it.
type SessionStore struct {
	sessions SessionRepository
	ttl      time.Duration
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(sessions SessionRepository, ttl time.Duration) (*SessionStore, error) {
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{sessions: sessions, ttl: ttl}, nil
}

// TTL returns the configured session lifetime.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create mints a new session for the user and persists it. Returns the
// session and the plaintext opaque token.
func (s *SessionStore) Create(ctx context.Context, userID ulid.ULID, ipAddress, userAgent string) (*Session, string, error) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", err
	}

	session, err := NewSession(userID, hash, ipAddress, userAgent, time.Now().Add(s.ttl))
	if err != nil {
		return nil, "", err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	return session, token, nil
}

// Validate returns the session iff it is active and unexpired, touching
// LastActivity on success. The touch is best-effort; a failed update
// does not invalidate the session.
func (s *SessionStore) Validate(ctx context.Context, id ulid.ULID) (*Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by id").
			Wrap(err)
	}

	if !session.IsValid() {
		return nil, ErrNotAuthenticated
	}

	now := time.Now()
	_ = s.sessions.UpdateLastActivity(ctx, session.ID, now) //nolint:errcheck // Best effort, validation succeeds regardless
	session.LastActivity = now

	return session, nil
}

// Revoke deactivates a session. Idempotent: revoking a session that is
// already revoked or gone is not an error.
func (s *SessionStore) Revoke(ctx context.Context, id ulid.ULID) error {
	if err := s.sessions.Revoke(ctx, id, time.Now()); err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").
			With("session_id", id.String()).
			Wrap(err)
	}
	return nil
}

// RevokeAllForUser deactivates every session belonging to the user.
// Used on password reset and admin deactivation.
func (s *SessionStore) RevokeAllForUser(ctx context.Context, userID ulid.ULID) error {
	if err := s.sessions.RevokeByUser(ctx, userID, time.Now()); err != nil {
		return oops.Code("SESSION_REVOKE_ALL_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}
