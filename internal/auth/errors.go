// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by repositories when a uniqueness constraint
// is violated (e.g. an email that is already registered).
var ErrDuplicate = errors.New("duplicate")

// User-safe failure messages. The invalid-credentials text is shared by
// the unknown-email and wrong-password paths so that responses never
// reveal whether an email is registered.
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgAccountLocked      = "Too many failed login attempts. Please try again later."
	MsgAccountDisabled    = "Your account has been deactivated. Please contact support."
	MsgEmailTaken         = "An account with this email already exists."
	MsgTryAgain           = "Something went wrong. Please try again."
)

// Expected-failure sentinels. Services return these directly for the
// outcomes a caller is allowed to distinguish; anything else is an
// infrastructure failure and must be surfaced as MsgTryAgain.
var (
	ErrInvalidCredentials = oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("%s", MsgInvalidCredentials)
	ErrAccountLocked      = oops.Code("AUTH_ACCOUNT_LOCKED").Errorf("%s", MsgAccountLocked)
	ErrAccountDisabled    = oops.Code("AUTH_ACCOUNT_DISABLED").Errorf("%s", MsgAccountDisabled)
	ErrEmailTaken         = oops.Code("AUTH_EMAIL_TAKEN").Errorf("%s", MsgEmailTaken)
	ErrNotAuthenticated   = oops.Code("AUTH_NOT_AUTHENTICATED").Errorf("not authenticated")
	ErrTokenInvalid       = oops.Code("AUTH_TOKEN_INVALID").Errorf("invalid or expired token")
)

// SafeMessage maps an error to the message that may be shown to an end
// user. Unknown errors collapse to the generic retry message so that
// storage failures never leak detail.
func SafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrAccountLocked):
		return MsgAccountLocked
	case errors.Is(err, ErrAccountDisabled):
		return MsgAccountDisabled
	case errors.Is(err, ErrEmailTaken):
		return MsgEmailTaken
	default:
		return MsgTryAgain
	}
}
