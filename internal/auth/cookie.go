// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "driveuk_session"

// CookieBuilder produces the cookie directives handed to the HTTP layer.
type CookieBuilder struct {
	secure bool
	maxAge time.Duration
}

// NewCookieBuilder creates a CookieBuilder. secure should be true in
// production so the cookie is only sent over TLS.
func NewCookieBuilder(secure bool, maxAge time.Duration) *CookieBuilder {
	if maxAge <= 0 {
		maxAge = DefaultSessionTTL
	}
	return &CookieBuilder{secure: secure, maxAge: maxAge}
}

// Session builds the cookie carrying a signed session token.
func (b *CookieBuilder) Session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(b.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Expired builds the directive clearing the session cookie. Logout sets
// this unconditionally, whether or not a session was found.
func (b *CookieBuilder) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
