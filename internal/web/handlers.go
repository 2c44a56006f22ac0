// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
	"github.com/knightappsdev/driveuk-sub000/internal/observability"
	"github.com/knightappsdev/driveuk-sub000/pkg/errutil"
)

// Login outcome labels for the logins_total metric.
const (
	outcomeSuccess  = "success"
	outcomeInvalid  = "invalid_credentials"
	outcomeLocked   = "locked"
	outcomeDisabled = "disabled"
	outcomeError    = "error"
)

// ServerDeps bundles the collaborators of the web Server.
type ServerDeps struct {
	Auth    *auth.Service
	Resets  *auth.PasswordResetService
	Guard   *Guard
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server exposes the auth flows as a JSON API.
type Server struct {
	auth     *auth.Service
	resets   *auth.PasswordResetService
	guard    *Guard
	metrics  *observability.Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer creates a web Server.
func NewServer(deps ServerDeps) (*Server, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Errorf("auth service is required")
	case deps.Resets == nil:
		return nil, oops.Errorf("reset service is required")
	case deps.Guard == nil:
		return nil, oops.Errorf("guard is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		auth:     deps.Auth,
		resets:   deps.Resets,
		guard:    deps.Guard,
		metrics:  deps.Metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.guard.Authenticate)

	r.Route("/auth", func(r chi.Router) {
		r.With(s.guard.GuestOnly).Post("/register", s.handleRegister)
		r.With(s.guard.GuestOnly).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.guard.RequireAuth(false)).Get("/me", s.handleMe)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.guard.RequireAuth(true, auth.RoleAdmin))
		r.Post("/instructors/{userID}/approve", s.handleApproveInstructor)
	})

	return r
}

type registerRequest struct {
	Role          string  `json:"role" validate:"required,oneof=student instructor"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required"`
	FirstName     string  `json:"firstName" validate:"required,max=100"`
	LastName      string  `json:"lastName" validate:"required,max=100"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
	PostalCode    *string `json:"postalCode,omitempty"`
	ADINumber     string  `json:"adiNumber,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	core := auth.RegistrationCore{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	var reg auth.Registration
	switch req.Role {
	case string(auth.RoleInstructor):
		reg = auth.InstructorRegistration{RegistrationCore: core, ADINumber: req.ADINumber}
	default:
		reg = auth.StudentRegistration{RegistrationCore: core, LicenseNumber: req.LicenseNumber, PostalCode: req.PostalCode}
	}

	result, err := s.auth.Register(r.Context(), reg, clientIP(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(req.Role).Inc()
	}
	writeJSON(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User       *auth.UserView `json:"user"`
	RedirectTo string         `json:"redirectTo"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.auth.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		s.countLogin(err)
		s.writeServiceError(w, err)
		return
	}

	s.countLogin(nil)
	http.SetCookie(w, result.Cookie)
	writeJSON(w, http.StatusOK, loginResponse{User: result.User, RedirectTo: result.RedirectTo})
}

func (s *Server) countLogin(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.LoginsTotal.WithLabelValues(outcomeSuccess).Inc()
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.metrics.LoginsTotal.WithLabelValues(outcomeInvalid).Inc()
	case errors.Is(err, auth.ErrAccountLocked):
		s.metrics.LoginsTotal.WithLabelValues(outcomeLocked).Inc()
		s.metrics.LockoutsTotal.Inc()
	case errors.Is(err, auth.ErrAccountDisabled):
		s.metrics.LoginsTotal.WithLabelValues(outcomeDisabled).Inc()
	default:
		s.metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		token = cookie.Value
	}

	expired := s.auth.Logout(r.Context(), token, clientIP(r))
	http.SetCookie(w, expired)

	if s.metrics != nil && token != "" {
		s.metrics.SessionsRevoked.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		// RequireAuth already redirected; defensive only.
		s.writeServiceError(w, auth.ErrNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified. You can now log in."})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.resets.RequestReset(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, err)
		return
	}
	// Identical response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that address, a reset link has been sent.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.resets.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated. Please log in."})
}

func (s *Server) handleApproveInstructor(w http.ResponseWriter, r *http.Request) {
	userID, err := ulid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	if err := s.auth.ApproveInstructor(r.Context(), userID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Instructor approved."})
}

// decode parses and validates the JSON request body. Writes the error
// response itself and returns false when the request is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Missing or invalid fields.")
		return false
	}
	return true
}

// writeServiceError maps a service error to a status code and a safe
// message. Input-validation failures keep their message; infrastructure
// failures collapse to a generic one and get logged.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, auth.MsgInvalidCredentials)
	case errors.Is(err, auth.ErrAccountLocked):
		writeError(w, http.StatusTooManyRequests, auth.MsgAccountLocked)
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, auth.MsgAccountDisabled)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, auth.MsgEmailTaken)
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusBadRequest, "Invalid or expired token.")
	case isValidationCode(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		errutil.LogError(s.logger, "request failed", err)
		writeError(w, http.StatusInternalServerError, auth.MsgTryAgain)
	}
}

// isValidationCode reports whether the error carries one of the
// input-validation codes whose message is safe to echo back.
func isValidationCode(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	switch oopsErr.Code() {
	case "AUTH_VALIDATION", "AUTH_INVALID_EMAIL", "AUTH_INVALID_USER", "AUTH_INVALID_ROLE":
		return true
	}
	return false
}

// clientIP returns the request's source IP without the port. RealIP
// middleware has already folded in X-Forwarded-For where trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
