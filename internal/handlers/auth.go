package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"sitecraft/internal/middleware"
	"sitecraft/internal/models"
	"sitecraft/internal/session"
)

// totpIssuer is shown by authenticator apps.
const totpIssuer = "Sitecraft"

// timeNow is replaced in tests.
var timeNow = time.Now

// SessionStore is the part of session.Store the auth handlers use.
type SessionStore interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// UserRepository is the part of store.UserStore the auth handlers use.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions SessionStore
	users    UserRepository
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionStore, users UserRepository) *Auth {
	return &Auth{sessions: sessions, users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User        *session.Data `json:"user"`
	Requires2FA bool          `json:"requires2fa"`
	CSRFToken   string        `json:"csrfToken,omitempty"`
}

// Login checks credentials and starts a session. Users with 2FA enabled
// must complete /api/auth/2fa/verify before other API calls succeed.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		middleware.JSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   !user.Requires2FA(),
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "requires_2fa", user.Requires2FA())
	writeJSON(w, http.StatusOK, meResponse{
		User:        data,
		Requires2FA: !data.TwoFADone,
		CSRFToken:   middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// Me returns the current session.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		User:        sess,
		Requires2FA: !sess.TwoFADone,
		CSRFToken:   middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type twoFASetupResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	QRCode string `json:"qrCode"` // base64 PNG
}

// TwoFASetup generates a new TOTP secret for the current user. The secret
// becomes active once a code is confirmed through TwoFAVerify. Users who
// already enabled 2FA must be verified before replacing their secret.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if !sess.TwoFADone {
		middleware.JSONError(w, http.StatusForbidden, "two-factor verification required")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.users.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		writeError(w, r, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	})
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify validates a TOTP code. The first valid code after setup
// enables 2FA for the account; afterwards it completes the login.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFAVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, errors.New("session user no longer exists"))
		return
	}
	if user.TOTPSecret == nil {
		middleware.JSONError(w, http.StatusConflict, "two-factor authentication is not set up")
		return
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(req.Code), *user.TOTPSecret, timeNow(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		middleware.JSONError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			writeError(w, r, err)
			return
		}
		slog.Info("two-factor authentication enabled", "user_id", user.ID)
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: sess, CSRFToken: middleware.CSRFTokenFromCtx(r.Context())})
}
