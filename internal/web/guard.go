// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

// Package web provides the HTTP surface: the session guard middleware
// and the JSON handlers for the auth flows.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

type ctxKey int

const userCtxKey ctxKey = iota

// Guard resolves the session cookie into a user and enforces per-route
// access rules. The signed token in the cookie is only a pointer: every
// request goes through the session store, so a revoked session is dead
// immediately regardless of the token's expiry.
type Guard struct {
	auth   *auth.Service
	logger *slog.Logger
}

// NewGuard creates a Guard.
func NewGuard(authService *auth.Service, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{auth: authService, logger: logger}
}

// UserFrom extracts the authenticated user from the request context.
func UserFrom(ctx context.Context) (*auth.UserView, bool) {
	user, ok := ctx.Value(userCtxKey).(*auth.UserView)
	return user, ok
}

// Authenticate resolves the session cookie, if any, and stores the user
// in the request context. Requests without a valid session pass through
// with no user; access enforcement happens in RequireAuth.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := g.auth.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth gates a route. Unauthenticated requests are redirected to
// the login page; authenticated but unverified accounts go to the
// verification page when requireVerified is set; accounts whose role is
// not in roles go to the unauthorized page. An empty roles list admits
// every role.
func (g *Guard) RequireAuth(requireVerified bool, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				http.Redirect(w, r, auth.PathLogin, http.StatusSeeOther)
				return
			}
			if requireVerified && !user.IsEmailVerified {
				http.Redirect(w, r, auth.PathVerifyEmail, http.StatusSeeOther)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, user.Role) {
				http.Redirect(w, r, auth.PathUnauthorized, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuestOnly redirects authenticated users to their role's landing page.
// Applied to the login and registration pages.
func (g *Guard) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := UserFrom(r.Context()); ok {
			http.Redirect(w, r, user.Role.LandingPath(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
