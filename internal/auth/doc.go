// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

// Package auth provides authentication and session-lifecycle primitives
// for the DriveUK platform.
//
// # Domain Types
//
// Domain types (User, Session, LoginAttempt, VerificationToken,
// PasswordResetToken) should be created using their respective
// constructors:
//   - NewUser - creates a User with validated email and password hash
//   - NewSession - creates a Session with validated owner and expiry
//   - NewVerificationToken / NewPasswordResetToken - create single-use
//     tokens with validated owner and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - register, login, current-user resolution, logout
//   - PasswordResetService - password reset flow
//
// Sessions are the sole source of authority. The signed token issued at
// login proves only that the server minted it; every use must still
// resolve the embedded session id to a live, unrevoked session row.
package auth
