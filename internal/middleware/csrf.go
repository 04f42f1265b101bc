package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "sc_csrf"

	// CSRFHeaderName is the header the editor sends the token in.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormField is accepted for multipart uploads.
	CSRFFormField = "csrf_token"

	csrfKey contextKey = "csrf"
)

// NewCSRF returns double-submit cookie CSRF protection. The token cookie is
// readable by the editor's JavaScript, which echoes it in X-CSRF-Token on
// every state-changing request.
func NewCSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				token, err := generateCSRFToken()
				if err != nil {
					JSONError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
				cookie = &http.Cookie{Value: token}
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfKey, cookie.Value))

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" {
				submitted = r.FormValue(CSRFFormField)
			}
			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
				JSONError(w, http.StatusForbidden, "CSRF token mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFTokenFromCtx returns the token of the current request, so handlers
// can hand it to clients that cannot read cookies.
func CSRFTokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}

// generateCSRFToken creates a cryptographically random token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
