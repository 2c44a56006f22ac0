// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/knightappsdev/driveuk-sub000/internal/auth"
)

const (
	testPassword = "Secur3!Passw0rd"
	newPassword  = "N3w!Secur3Pass9"
)

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, ulid.Make().String())
}

// postJSON sends a JSON body, optionally with a session cookie, and
// returns the response plus its decoded body.
func postJSON(path string, payload map[string]any, cookie *http.Cookie) (*http.Response, map[string]any) {
	GinkgoHelper()

	body, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+path, bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := env.client.Do(req)
	Expect(err).NotTo(HaveOccurred())

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.Body.Close()).To(Succeed())

	decoded := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func getWithCookie(path string, cookie *http.Cookie) (*http.Response, map[string]any) {
	GinkgoHelper()

	req, err := http.NewRequest(http.MethodGet, env.server.URL+path, nil)
	Expect(err).NotTo(HaveOccurred())
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := env.client.Do(req)
	Expect(err).NotTo(HaveOccurred())

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(resp.Body.Close()).To(Succeed())

	decoded := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func sessionCookie(resp *http.Response) *http.Cookie {
	GinkgoHelper()

	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	Fail("response carries no session cookie")
	return nil
}

// registerStudent registers a student account and returns its email.
func registerStudent() string {
	GinkgoHelper()

	email := uniqueEmail("student")
	resp, _ := postJSON("/auth/register", map[string]any{
		"role":      "student",
		"email":     email,
		"password":  testPassword,
		"firstName": "Sam",
		"lastName":  "Taylor",
	}, nil)
	Expect(resp.StatusCode).To(Equal(http.StatusCreated))
	return email
}

// verifyEmail completes verification with the mailed token.
func verifyEmail(email string) {
	GinkgoHelper()

	token := env.mailer.verificationToken(email)
	Expect(token).NotTo(BeEmpty(), "no verification token was mailed to %s", email)

	resp, _ := postJSON("/auth/verify-email", map[string]any{"token": token}, nil)
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
}

// login authenticates and returns the session cookie.
func login(email, password string) (*http.Response, *http.Cookie) {
	GinkgoHelper()

	resp, _ := postJSON("/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	Expect(resp.StatusCode).To(Equal(http.StatusOK))
	return resp, sessionCookie(resp)
}

// createAdmin inserts a verified admin account directly.
func createAdmin() string {
	GinkgoHelper()

	email := uniqueEmail("admin")
	hash, err := env.hasher.Hash(testPassword)
	Expect(err).NotTo(HaveOccurred())

	admin, err := auth.NewUser(email, hash, "Ada", "Morgan", auth.RoleAdmin)
	Expect(err).NotTo(HaveOccurred())
	admin.IsEmailVerified = true
	Expect(env.users.Create(env.ctx, admin)).To(Succeed())
	return email
}

var _ = Describe("Registration and email verification", func() {
	It("registers a student and verifies through the mailed token", func() {
		email := registerStudent()

		By("logging in before verification redirects to the verification page")
		resp, body := postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": testPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["redirectTo"]).To(Equal(auth.PathVerifyEmail))

		By("verifying with the mailed token")
		verifyEmail(email)

		By("the token is single use")
		token := env.mailer.verificationToken(email)
		resp, _ = postJSON("/auth/verify-email", map[string]any{"token": token}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		By("logging in after verification lands on the dashboard")
		resp, body = postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": testPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["redirectTo"]).To(Equal(auth.RoleStudent.LandingPath()))
	})

	It("rejects a duplicate email with a conflict", func() {
		email := registerStudent()

		resp, _ := postJSON("/auth/register", map[string]any{
			"role":      "student",
			"email":     email,
			"password":  testPassword,
			"firstName": "Alex",
			"lastName":  "Reed",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("rejects a weak password with the policy errors", func() {
		resp, body := postJSON("/auth/register", map[string]any{
			"role":      "student",
			"email":     uniqueEmail("weak"),
			"password":  "short",
			"firstName": "Sam",
			"lastName":  "Taylor",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(body["error"]).To(ContainSubstring("password"))
	})
})

var _ = Describe("Session lifecycle", func() {
	It("runs login, current user, and logout end to end", func() {
		email := registerStudent()
		verifyEmail(email)

		_, cookie := login(email, testPassword)

		By("the cookie resolves to the logged-in user")
		resp, body := getWithCookie("/auth/me", cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["email"]).To(Equal(email))

		By("logout revokes the session")
		resp, _ = postJSON("/auth/logout", map[string]any{}, cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		By("the revoked cookie no longer authenticates")
		resp, _ = getWithCookie("/auth/me", cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal(auth.PathLogin))
	})

	It("rejects a forged session token", func() {
		resp, _ := getWithCookie("/auth/me", &http.Cookie{
			Name:  auth.SessionCookieName,
			Value: "not-a-real-token",
		})
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal(auth.PathLogin))
	})

	It("redirects an authenticated user away from the login page", func() {
		email := registerStudent()
		verifyEmail(email)
		_, cookie := login(email, testPassword)

		resp, _ := postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": testPassword,
		}, cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal(auth.RoleStudent.LandingPath()))
	})
})

var _ = Describe("Login lockout", func() {
	It("locks the account after five failures inside the window", func() {
		email := registerStudent()
		verifyEmail(email)

		By("five wrong passwords are rejected as invalid credentials")
		for range 5 {
			resp, _ := postJSON("/auth/login", map[string]any{
				"email":    email,
				"password": "Wr0ng!Password",
			}, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		}

		By("the sixth attempt is locked out even with the right password")
		resp, body := postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": testPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(body["error"]).To(Equal(auth.MsgAccountLocked))
	})

	It("treats unknown emails and wrong passwords identically", func() {
		email := registerStudent()
		verifyEmail(email)

		respUnknown, bodyUnknown := postJSON("/auth/login", map[string]any{
			"email":    uniqueEmail("ghost"),
			"password": testPassword,
		}, nil)
		respWrong, bodyWrong := postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": "Wr0ng!Password",
		}, nil)

		Expect(respUnknown.StatusCode).To(Equal(respWrong.StatusCode))
		Expect(bodyUnknown["error"]).To(Equal(bodyWrong["error"]))
	})
})

var _ = Describe("Password reset", func() {
	It("resets the password and kills every session", func() {
		email := registerStudent()
		verifyEmail(email)
		_, cookie := login(email, testPassword)

		By("requesting a reset mails a token")
		resp, _ := postJSON("/auth/forgot-password", map[string]any{"email": email}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		token := env.mailer.resetToken(email)
		Expect(token).NotTo(BeEmpty())

		By("a weak replacement password is rejected")
		resp, _ = postJSON("/auth/reset-password", map[string]any{
			"token":    token,
			"password": "short",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

		By("a strong replacement password is accepted")
		resp, _ = postJSON("/auth/reset-password", map[string]any{
			"token":    token,
			"password": newPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		By("the pre-reset session is dead")
		resp, _ = getWithCookie("/auth/me", cookie)
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))

		By("the old password no longer works")
		resp, _ = postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": testPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))

		By("the new password does")
		resp, _ = postJSON("/auth/login", map[string]any{
			"email":    email,
			"password": newPassword,
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("answers identically for unknown addresses", func() {
		resp, body := postJSON("/auth/forgot-password", map[string]any{
			"email": uniqueEmail("nobody"),
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["message"]).To(ContainSubstring("If an account exists"))
	})
})

var _ = Describe("Instructor approval", func() {
	registerInstructor := func() string {
		GinkgoHelper()

		email := uniqueEmail("instructor")
		resp, _ := postJSON("/auth/register", map[string]any{
			"role":      "instructor",
			"email":     email,
			"password":  testPassword,
			"firstName": "Iris",
			"lastName":  "Clark",
			"adiNumber": "ADI-12345",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		return email
	}

	It("starts instructors inactive and activates them on admin approval", func() {
		instructorEmail := registerInstructor()
		verifyEmail(instructorEmail)

		instructor, err := env.users.GetByEmail(env.ctx, instructorEmail)
		Expect(err).NotTo(HaveOccurred())

		profile, err := env.profiles.GetInstructorByUser(env.ctx, instructor.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.IsActive).To(BeFalse(), "instructors await approval")

		adminEmail := createAdmin()
		_, adminCookie := login(adminEmail, testPassword)

		resp, _ := postJSON("/admin/instructors/"+instructor.ID.String()+"/approve", map[string]any{}, adminCookie)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		profile, err = env.profiles.GetInstructorByUser(env.ctx, instructor.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(profile.IsActive).To(BeTrue())
	})

	It("refuses approval from non-admin accounts", func() {
		instructorEmail := registerInstructor()
		verifyEmail(instructorEmail)

		instructor, err := env.users.GetByEmail(env.ctx, instructorEmail)
		Expect(err).NotTo(HaveOccurred())

		studentEmail := registerStudent()
		verifyEmail(studentEmail)
		_, studentCookie := login(studentEmail, testPassword)

		resp, _ := postJSON("/admin/instructors/"+instructor.ID.String()+"/approve", map[string]any{}, studentCookie)
		Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
		Expect(resp.Header.Get("Location")).To(Equal(auth.PathUnauthorized))
	})

	It("rejects registration of an instructor without an ADI number", func() {
		resp, _ := postJSON("/auth/register", map[string]any{
			"role":      "instructor",
			"email":     uniqueEmail("no-adi"),
			"password":  testPassword,
			"firstName": "Iris",
			"lastName":  "Clark",
		}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
