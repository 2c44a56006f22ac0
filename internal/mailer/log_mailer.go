// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes mail tokens to the log instead of sending them. Used
// in development when no SMTP server is configured. Never use it in
// production: tokens in logs defeat their purpose.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// SendVerification logs the verification token.
func (m *LogMailer) SendVerification(_ context.Context, email, token string) error {
	m.logger.Info("verification mail (log mailer)",
		slog.String("email", email),
		slog.String("token", token))
	return nil
}

// SendPasswordReset logs the reset token.
func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.logger.Info("password reset mail (log mailer)",
		slog.String("email", email),
		slog.String("token", token))
	return nil
}
