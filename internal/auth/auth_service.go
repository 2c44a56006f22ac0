// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/pkg/errutil"
)

// Mailer is the outbound email collaborator. Templating and delivery
// are out of scope; the service only hands over a destination and a
// plaintext token.
type Mailer interface {
	// SendVerification delivers an email verification token.
	SendVerification(ctx context.Context, email, token string) error

	// SendPasswordReset delivers a password reset token.
	SendPasswordReset(ctx context.Context, email, token string) error
}

// dummyPasswordHash is verified against when a user doesn't exist so the
// not-found path costs the same as a real password check. This is NOT a
// credential - it can never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceDeps bundles the collaborators of the auth Service.
type ServiceDeps struct {
	Users         UserRepository
	Profiles      ProfileRepository
	Sessions      *SessionStore
	Limiter       *AttemptLimiter
	Hasher        PasswordHasher
	Signer        *TokenSigner
	Verifications VerificationTokenRepository
	Activity      ActivityLogRepository
	Mailer        Mailer
	Cookies       *CookieBuilder
	Logger        *slog.Logger
}

// Service orchestrates registration, login, current-user resolution,
// and logout. Expected failures come back as the sentinel errors in
// errors.go; anything else is an infrastructure failure.
type Service struct {
	users         UserRepository
	profiles      ProfileRepository
	sessions      *SessionStore
	limiter       *AttemptLimiter
	hasher        PasswordHasher
	signer        *TokenSigner
	verifications VerificationTokenRepository
	activity      ActivityLogRepository
	mailer        Mailer
	cookies       *CookieBuilder
	logger        *slog.Logger
}

// NewService creates an auth Service, validating that every dependency
// is present.
func NewService(deps ServiceDeps) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Errorf("users repository is required")
	case deps.Profiles == nil:
		return nil, oops.Errorf("profiles repository is required")
	case deps.Sessions == nil:
		return nil, oops.Errorf("session store is required")
	case deps.Limiter == nil:
		return nil, oops.Errorf("attempt limiter is required")
	case deps.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case deps.Signer == nil:
		return nil, oops.Errorf("token signer is required")
	case deps.Verifications == nil:
		return nil, oops.Errorf("verification token repository is required")
	case deps.Activity == nil:
		return nil, oops.Errorf("activity log repository is required")
	case deps.Mailer == nil:
		return nil, oops.Errorf("mailer is required")
	case deps.Cookies == nil:
		return nil, oops.Errorf("cookie builder is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		users:         deps.Users,
		profiles:      deps.Profiles,
		sessions:      deps.Sessions,
		limiter:       deps.Limiter,
		hasher:        deps.Hasher,
		signer:        deps.Signer,
		verifications: deps.Verifications,
		activity:      deps.Activity,
		mailer:        deps.Mailer,
		cookies:       deps.Cookies,
		logger:        logger,
	}, nil
}

// RegisterResult is returned on successful registration.
type RegisterResult struct {
	Message    string `json:"message"`
	RedirectTo string `json:"redirectTo"`
}

// Register creates a user plus its role-specific profile, issues an
// email verification token, and hands it to the mailer. Duplicate
// emails fail with ErrEmailTaken; weak passwords with AUTH_VALIDATION.
func (s *Service) Register(ctx context.Context, reg Registration, ip string) (*RegisterResult, error) {
	core := reg.Core()

	if err := ValidateEmail(NormalizeEmail(core.Email)); err != nil {
		return nil, err
	}
	if strength := ValidateStrength(core.Password); !strength.Valid {
		return nil, oops.Code("AUTH_VALIDATION").
			With("errors", strength.Errors).
			Errorf("password does not meet the policy: %s", strings.Join(strength.Errors, "; "))
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}

	// Early duplicate check for a friendly failure; the unique index
	// still backstops concurrent registrations.
	if _, err := s.users.GetByEmail(ctx, NormalizeEmail(core.Email)); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(core.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(core.Email, hash, core.FirstName, core.LastName, reg.Role())
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	if err := s.createProfile(ctx, user, reg); err != nil {
		return nil, err
	}

	s.issueVerification(ctx, user)
	s.logActivity(ctx, user.ID, ActionRegister, string(user.Role), ip)

	return &RegisterResult{
		Message:    "Account created. Please check your email to verify your address.",
		RedirectTo: PathVerifyEmail,
	}, nil
}

// createProfile persists the role-tagged profile. Instructor profiles
// start inactive and stay that way until an admin approves them.
func (s *Service) createProfile(ctx context.Context, user *User, reg Registration) error {
	now := time.Now()
	switch r := reg.(type) {
	case StudentRegistration:
		profile := &StudentProfile{
			ID:            ulid.Make(),
			UserID:        user.ID,
			LicenseNumber: r.LicenseNumber,
			PostalCode:    r.PostalCode,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.profiles.CreateStudent(ctx, profile); err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "insert student profile").
				Wrap(err)
		}
	case InstructorRegistration:
		profile := &InstructorProfile{
			ID:        ulid.Make(),
			UserID:    user.ID,
			ADINumber: r.ADINumber,
			IsActive:  false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.profiles.CreateInstructor(ctx, profile); err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "insert instructor profile").
				Wrap(err)
		}
	default:
		return oops.Code("AUTH_INVALID_ROLE").Errorf("unsupported registration type")
	}
	return nil
}

// issueVerification generates a verification token and hands it to the
// mailer. Failures are logged; registration still succeeds because the
// token can be re-issued later.
func (s *Service) issueVerification(ctx context.Context, user *User) {
	token, hash, err := GenerateOneTimeToken()
	if err != nil {
		errutil.LogError(s.logger, "failed to generate verification token", err)
		return
	}
	record, err := NewVerificationToken(user.ID, hash, time.Now().Add(VerificationTokenTTL))
	if err != nil {
		errutil.LogError(s.logger, "failed to build verification token", err)
		return
	}
	if err := s.verifications.Create(ctx, record); err != nil {
		errutil.LogError(s.logger, "failed to store verification token", err)
		return
	}
	if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
		errutil.LogError(s.logger, "failed to send verification mail", err)
	}
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User       *UserView    `json:"user"`
	Token      string       `json:"-"`
	Cookie     *http.Cookie `json:"-"`
	RedirectTo string       `json:"redirectTo"`
}

// Login authenticates credentials and mints a session plus a signed
// token. The lockout gate runs before any credential work; the unknown
// email and wrong password paths return the identical ErrInvalidCredentials
// and cost the same wall-clock time.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccountLocked
	}

	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Verify against a dummy hash when the user doesn't exist so both
	// failure paths perform one lookup plus one argon2 comparison.
	targetHash := dummyPasswordHash
	if lookupErr == nil {
		targetHash = user.PasswordHash
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && lookupErr == nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if lookupErr != nil {
		s.recordFailure(ctx, email, ip, userAgent, FailureUserNotFound, nil)
		return nil, ErrInvalidCredentials
	}
	if !valid {
		s.recordFailure(ctx, email, ip, userAgent, FailureBadPassword, &user.ID)
		return nil, ErrInvalidCredentials
	}

	// Credential already matched; revealing the account state here is
	// accepted.
	if !user.CanLogin() {
		s.recordFailure(ctx, email, ip, userAgent, FailureDisabled, &user.ID)
		return nil, ErrAccountDisabled
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
				errutil.LogError(s.logger, "failed to upgrade password hash", err)
			}
		}
	}

	session, _, err := s.sessions.Create(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	signed, err := s.signer.Sign(user.ID, session.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.limiter.RecordSuccess(ctx, email, ip, userAgent, user.ID, session.ID); err != nil {
		errutil.LogError(s.logger, "failed to record successful attempt", err)
	}
	if err := s.users.RecordLogin(ctx, user.ID, now, ip); err != nil {
		errutil.LogError(s.logger, "failed to record last login", err)
	}
	s.logActivity(ctx, user.ID, ActionLogin, userAgent, ip)

	return &LoginResult{
		User:       user.View(session.ID),
		Token:      signed,
		Cookie:     s.cookies.Session(signed),
		RedirectTo: s.redirectFor(user),
	}, nil
}

// redirectFor computes the post-login destination: unverified accounts
// land on the verification page, everyone else on their role's home.
func (s *Service) redirectFor(user *User) string {
	if !user.IsEmailVerified {
		return PathVerifyEmail
	}
	return user.Role.LandingPath()
}

// CurrentUser resolves a signed token to its user. The token signature
// is necessary but not sufficient: the embedded session id must resolve
// to a live session, and the owning user must still be able to log in.
// Returns ErrNotAuthenticated on every invalid path.
func (s *Service) CurrentUser(ctx context.Context, token string) (*UserView, error) {
	claims := s.signer.Verify(token)
	if claims == nil {
		return nil, ErrNotAuthenticated
	}

	sessionID, err := ulid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	// A revoked or expired session wins over an unexpired signature.
	session, err := s.sessions.Validate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	if !user.CanLogin() {
		return nil, ErrNotAuthenticated
	}

	return user.View(session.ID), nil
}

// Logout revokes the session referenced by the token, if any, and
// returns the cookie directive clearing the session cookie. Calling it
// with no session, or twice in a row, never errors.
func (s *Service) Logout(ctx context.Context, token, ip string) *http.Cookie {
	expired := s.cookies.Expired()

	claims := s.signer.Verify(token)
	if claims == nil {
		return expired
	}
	sessionID, err := ulid.Parse(claims.SessionID)
	if err != nil {
		return expired
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		errutil.LogError(s.logger, "failed to revoke session", err)
		return expired
	}

	if userID, err := ulid.Parse(claims.UserID); err == nil {
		s.logActivity(ctx, userID, ActionLogout, "", ip)
	}

	return expired
}

// VerifyEmail consumes a verification token and marks the user's email
// as verified. Expired or unknown tokens fail with ErrTokenInvalid.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenInvalid
	}

	record, err := s.verifications.GetByTokenHash(ctx, HashOneTimeToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenInvalid
		}
		return oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get verification token").
			Wrap(err)
	}
	if record.IsExpired() {
		return ErrTokenInvalid
	}

	if err := s.users.SetEmailVerified(ctx, record.UserID); err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "set email verified").
			Wrap(err)
	}

	// Cleanup; verification already succeeded.
	//nolint:errcheck // single-use tokens, best-effort removal
	s.verifications.DeleteByUser(ctx, record.UserID)

	s.logActivity(ctx, record.UserID, ActionVerifyEmail, "", "")
	return nil
}

// ApproveInstructor activates a pending instructor profile. Admin-only;
// the route guard enforces the role.
func (s *Service) ApproveInstructor(ctx context.Context, userID ulid.ULID) error {
	if err := s.profiles.ApproveInstructor(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_PROFILE_NOT_FOUND").
				With("user_id", userID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_APPROVE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, email, ip, userAgent, reason string, userID *ulid.ULID) {
	if err := s.limiter.RecordFailure(ctx, email, ip, userAgent, reason, userID); err != nil {
		errutil.LogError(s.logger, "failed to record login failure", err)
	}
}

func (s *Service) logActivity(ctx context.Context, userID ulid.ULID, action, details, ip string) {
	if err := s.activity.Append(ctx, NewActivityEntry(userID, action, details, ip)); err != nil {
		errutil.LogError(s.logger, "failed to append activity log", err)
	}
}
