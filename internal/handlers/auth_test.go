// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"sitecraft/internal/models"
	"sitecraft/internal/session"
)

type fakeUsers struct {
	byEmail map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byEmail: map[string]*models.User{}}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	u, _ := f.FindByID(ctx, id)
	u.TOTPSecret = &secret
	return nil
}

func (f *fakeUsers) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	u, _ := f.FindByID(ctx, id)
	u.TOTPEnabled = true
	return nil
}

// CheckPassword compares against PasswordHash verbatim; hashing is covered
// by the store tests.
func (f *fakeUsers) CheckPassword(u *models.User, password string) bool {
	return u.PasswordHash == password
}

type fakeSessions struct {
	created   []*session.Data
	updated   []*session.Data
	destroyed int
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	cp := *data
	f.created = append(f.created, &cp)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "sid"})
	return "sid", nil
}

func (f *fakeSessions) Update(_ context.Context, _ *http.Request, data *session.Data) error {
	cp := *data
	f.updated = append(f.updated, &cp)
	return nil
}

func (f *fakeSessions) Destroy(context.Context, http.ResponseWriter, *http.Request) error {
	f.destroyed++
	return nil
}

func testUser(email string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "correct horse",
		DisplayName:  "Test User",
		Role:         models.RoleMember,
	}
}

// --------------------------------------------------------------------------
// Login / Logout / Me
// --------------------------------------------------------------------------

func TestLogin(t *testing.T) {
	user := testUser("owner@sitecraft.local")
	sessions := &fakeSessions{}
	a := NewAuth(sessions, newFakeUsers(user))

	rec := httptest.NewRecorder()
	a.Login(rec, apiRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": " owner@sitecraft.local ", "password": "correct horse"}, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var got meResponse
	decodeBody(t, rec, &got)
	if got.Requires2FA {
		t.Error("user without 2FA must not need verification")
	}
	if len(sessions.created) != 1 || !sessions.created[0].TwoFADone || sessions.created[0].UserID != user.ID {
		t.Errorf("session: got %+v", sessions.created)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("no session cookie set")
	}
}

func TestLoginWithTwoFactor(t *testing.T) {
	user := testUser("secure@sitecraft.local")
	user.TOTPEnabled = true
	sessions := &fakeSessions{}
	a := NewAuth(sessions, newFakeUsers(user))

	rec := httptest.NewRecorder()
	a.Login(rec, apiRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": user.Email, "password": "correct horse"}, nil))

	var got meResponse
	decodeBody(t, rec, &got)
	if !got.Requires2FA || sessions.created[0].TwoFADone {
		t.Errorf("2FA user: requires2fa=%v twoFADone=%v", got.Requires2FA, sessions.created[0].TwoFADone)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	user := testUser("owner@sitecraft.local")
	sessions := &fakeSessions{}
	a := NewAuth(sessions, newFakeUsers(user))

	tests := []struct {
		name  string
		email string
		pw    string
	}{
		{"wrong password", user.Email, "battery staple"},
		{"unknown email", "ghost@sitecraft.local", "correct horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Login(rec, apiRequest(t, http.MethodPost, "/api/auth/login",
				map[string]string{"email": tt.email, "password": tt.pw}, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if msg := errorMessage(t, rec); msg != "invalid email or password" {
				t.Errorf("message: got %q", msg)
			}
		})
	}
	if len(sessions.created) != 0 {
		t.Errorf("sessions created for bad credentials: %d", len(sessions.created))
	}
}

func TestMeAndLogout(t *testing.T) {
	sessions := &fakeSessions{}
	a := NewAuth(sessions, newFakeUsers())
	sess := testSession(uuid.New(), "member")

	rec := httptest.NewRecorder()
	a.Me(rec, apiRequest(t, http.MethodGet, "/api/auth/me", nil, sess))
	var got meResponse
	decodeBody(t, rec, &got)
	if got.User == nil || got.User.UserID != sess.UserID {
		t.Errorf("me: got %+v", got.User)
	}

	rec = httptest.NewRecorder()
	a.Logout(rec, apiRequest(t, http.MethodPost, "/api/auth/logout", nil, sess))
	if rec.Code != http.StatusNoContent || sessions.destroyed != 1 {
		t.Errorf("logout: status=%d destroyed=%d", rec.Code, sessions.destroyed)
	}
}

// --------------------------------------------------------------------------
// Two-factor setup and verification
// --------------------------------------------------------------------------

func TestTwoFASetupAndVerify(t *testing.T) {
	user := testUser("owner@sitecraft.local")
	users := newFakeUsers(user)
	sessions := &fakeSessions{}
	a := NewAuth(sessions, users)
	sess := testSession(user.ID, "member")

	rec := httptest.NewRecorder()
	a.TwoFASetup(rec, apiRequest(t, http.MethodPost, "/api/auth/2fa/setup", nil, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("setup: got %d (%s)", rec.Code, rec.Body.String())
	}
	var setup twoFASetupResponse
	decodeBody(t, rec, &setup)
	if setup.Secret == "" || user.TOTPSecret == nil || *user.TOTPSecret != setup.Secret {
		t.Fatalf("secret not stored: %+v", setup)
	}
	png, err := base64.StdEncoding.DecodeString(setup.QRCode)
	if err != nil || len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Errorf("qr code is not a base64 PNG (err=%v)", err)
	}

	rec = httptest.NewRecorder()
	a.TwoFAVerify(rec, apiRequest(t, http.MethodPost, "/api/auth/2fa/verify", map[string]string{"code": "000000"}, sess))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong code: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	rec = httptest.NewRecorder()
	a.TwoFAVerify(rec, apiRequest(t, http.MethodPost, "/api/auth/2fa/verify", map[string]string{"code": code}, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: got %d (%s)", rec.Code, rec.Body.String())
	}
	if !user.TOTPEnabled {
		t.Error("2FA not enabled after first valid code")
	}
	if len(sessions.updated) != 1 || !sessions.updated[0].TwoFADone {
		t.Errorf("session not marked verified: %+v", sessions.updated)
	}
}

func TestTwoFASetupRequiresVerifiedSession(t *testing.T) {
	a := NewAuth(&fakeSessions{}, newFakeUsers())
	sess := testSession(uuid.New(), "member")
	sess.TwoFADone = false

	rec := httptest.NewRecorder()
	a.TwoFASetup(rec, apiRequest(t, http.MethodPost, "/api/auth/2fa/setup", nil, sess))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestTwoFAVerifyWithoutSetup(t *testing.T) {
	user := testUser("owner@sitecraft.local")
	a := NewAuth(&fakeSessions{}, newFakeUsers(user))

	rec := httptest.NewRecorder()
	a.TwoFAVerify(rec, apiRequest(t, http.MethodPost, "/api/auth/2fa/verify",
		map[string]string{"code": "123456"}, testSession(user.ID, "member")))

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
	}
}
