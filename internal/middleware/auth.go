// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"sitecraft/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// SessionGetter loads the session of a request. *session.Store satisfies it.
type SessionGetter interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// LoadSession retrieves the session from Valkey and stores it in the
// request context. It does not enforce authentication.
func LoadSession(store SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Treat as unauthenticated.
				slog.Warn("session load failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a session with 401.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			JSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require2FA rejects sessions of users with 2FA enabled who have not
// entered a code yet. Must be applied after RequireAuth.
func Require2FA(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess != nil && !sess.TwoFADone {
			JSONError(w, http.StatusForbidden, "two-factor verification required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after RequireAuth and Require2FA.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess == nil || sess.Role != "admin" {
			JSONError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded (user is not authenticated).
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// UserID returns the authenticated user's id.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	sess := SessionFromCtx(ctx)
	if sess == nil {
		return uuid.Nil, false
	}
	return sess.UserID, true
}
