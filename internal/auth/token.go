// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// tokenIssuer identifies tokens minted by this service.
const tokenIssuer = "driveuk"

// alphanumericChars is the alphabet for opaque verification/reset tokens.
const alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SessionClaims is the fixed-shape payload of a signed session token.
// The claims prove the server issued the token; authority still requires
// the embedded session id to resolve to a live session row.
type SessionClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies session tokens using HMAC-SHA256.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner creates a TokenSigner. The secret is required; there is
// no insecure default.
func NewTokenSigner(secret string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_SECRET_REQUIRED").Errorf("session signing secret is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("AUTH_TTL_INVALID").Errorf("token ttl must be positive")
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}, nil
}

// Sign mints a signed token for the given user and session.
func (s *TokenSigner) Sign(userID, sessionID ulid.ULID, email string, role Role) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a signed token. It returns nil on any
// failure - bad signature, malformed structure, wrong algorithm, or
// expiry - and never reports which check failed.
func (s *TokenSigner) Verify(token string) *SessionClaims {
	if token == "" {
		return nil
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil || !parsed.Valid {
		return nil
	}
	return claims
}

// GenerateSecureToken creates a cryptographically random alphanumeric
// string for verification and reset tokens.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", oops.Code("AUTH_TOKEN_LENGTH").Errorf("token length must be positive")
	}
	out := make([]byte, length)
	for i := range out {
		c, err := randomChar(alphanumericChars)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	return string(out), nil
}

// GenerateOTP creates a random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", oops.Code("AUTH_TOKEN_LENGTH").Errorf("otp length must be positive")
	}
	out := make([]byte, length)
	for i := range out {
		c, err := randomChar(digitChars)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	return string(out), nil
}
