// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"github.com/samber/oops"
)

// Password policy constraints.
const (
	MinPasswordLength    = 8
	StrongPasswordLength = 12
)

// Character classes for password generation.
const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{}<>?"
)

// weakSubstrings are fragments that drag the score down when they appear
// anywhere in the password (case-insensitive).
var weakSubstrings = []string{
	"password", "12345", "qwerty", "letmein", "abc123", "driveuk",
}

// StrengthResult reports how a password measures against the policy.
// Valid is true iff Errors is empty; Score is informational, 0-100.
type StrengthResult struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
	Score  int      `json:"score"`
}

// ValidateStrength scores a password against the platform policy.
// Policy: at least MinPasswordLength characters with one lowercase, one
// uppercase, one digit, and one special character. Longer passwords and
// full class coverage raise the score; weak fragments lower it.
func ValidateStrength(password string) StrengthResult {
	var result StrengthResult

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if len(password) < MinPasswordLength {
		result.Errors = append(result.Errors, "password must be at least 8 characters")
	} else {
		result.Score += 25
	}
	if len(password) >= StrongPasswordLength {
		result.Score += 15
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{hasLower, "password must contain a lowercase letter"},
		{hasUpper, "password must contain an uppercase letter"},
		{hasDigit, "password must contain a digit"},
		{hasSpecial, "password must contain a special character"},
	}
	for _, c := range checks {
		if c.ok {
			result.Score += 15
		} else {
			result.Errors = append(result.Errors, c.msg)
		}
	}

	lowered := strings.ToLower(password)
	for _, weak := range weakSubstrings {
		if strings.Contains(lowered, weak) {
			result.Score -= 20
		}
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// GenerateRandomPassword produces a random password of the given length
// with at least one character from each class. The result is shuffled so
// the guaranteed characters do not sit at fixed positions.
func GenerateRandomPassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", oops.Code("AUTH_PASSWORD_LENGTH").
			With("min", MinPasswordLength).
			Errorf("generated password must be at least %d characters", MinPasswordLength)
	}

	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	all := strings.Join(classes, "")

	chars := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, oops.Code("AUTH_RANDOM_FAILED").Wrap(err)
	}
	return int(v.Int64()), nil
}
