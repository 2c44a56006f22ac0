// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

// Package mailer delivers transactional auth emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the SMTP connection settings, read from environment
// variables.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	BaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

// LoadSMTPConfig reads the SMTP configuration from the environment.
func LoadSMTPConfig() (SMTPConfig, error) {
	cfg, err := env.ParseAs[SMTPConfig]()
	if err != nil {
		return SMTPConfig{}, oops.Code("MAILER_CONFIG_FAILED").
			With("operation", "parse environment").
			Wrap(err)
	}
	return cfg, nil
}

// Configured reports whether enough settings are present to dial SMTP.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// sender abstracts gomail's dialer for testing.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends verification and password reset mails over SMTP.
type SMTPMailer struct {
	dialer  sender
	from    string
	baseURL string
}

// New creates an SMTPMailer from the config.
func New(cfg SMTPConfig) (*SMTPMailer, error) {
	if !cfg.Configured() {
		return nil, oops.Code("MAILER_CONFIG_FAILED").
			Errorf("SMTP_HOST and SMTP_FROM are required")
	}
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}, nil
}

// SendVerification delivers an email verification link.
func (m *SMTPMailer) SendVerification(_ context.Context, email, token string) error {
	link := m.link("/verify-email", token)
	body := fmt.Sprintf(
		"Welcome to DriveUK!\n\nPlease verify your email address by visiting:\n\n%s\n\nThe link expires in 24 hours.\n",
		link,
	)
	return m.send(email, "Verify your DriveUK email address", body)
}

// SendPasswordReset delivers a password reset link.
func (m *SMTPMailer) SendPasswordReset(_ context.Context, email, token string) error {
	link := m.link("/reset-password", token)
	body := fmt.Sprintf(
		"A password reset was requested for your DriveUK account.\n\nReset your password by visiting:\n\n%s\n\nThe link expires in 1 hour. If you did not request this, you can ignore this mail.\n",
		link,
	)
	return m.send(email, "Reset your DriveUK password", body)
}

func (m *SMTPMailer) link(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return oops.Code("MAILER_SEND_FAILED").
			With("subject", subject).
			Wrap(err)
	}
	return nil
}
