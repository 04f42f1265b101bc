// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session provides Valkey-backed HTTP session management.
// Sessions are identified by a secure cookie and stored as JSON in Valkey
// with automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "sc_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	keyPrefix = "session:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrNoSession is returned by Update when the request carries no session.
var ErrNoSession = errors.New("no session cookie")

// Data holds the session payload stored in Valkey.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	// TwoFADone is true once the TOTP code was entered, or when the user
	// has no second factor enrolled.
	TwoFADone bool      `json:"two_fa_done"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks the cookie Secure; enable it behind TLS.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create stores a new session and sets its cookie. Returns the session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	data.CreatedAt = time.Now()
	if err := s.save(ctx, id, data); err != nil {
		return "", err
	}
	http.SetCookie(w, s.cookie(id, int(s.ttl.Seconds())))
	return id, nil
}

// Get loads the request's session and slides its expiry forward, so an
// editor left open keeps its login. Returns (nil, nil) without a live session.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := requestID(r)
	if !ok {
		return nil, nil
	}

	payload, err := s.client.GetEx(ctx, keyPrefix+id, s.ttl).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("session get: %w", err)
	}

	data := new(Data)
	if err := json.Unmarshal(payload, data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return data, nil
}

// Update overwrites the payload of the current session, e.g. once the
// second factor was verified.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	id, ok := requestID(r)
	if !ok {
		return fmt.Errorf("session update: %w", ErrNoSession)
	}
	return s.save(ctx, id, data)
}

// Destroy deletes the session and expires the cookie. Requests without a
// session cookie are a no-op.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, ok := requestID(r)
	if !ok {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	http.SetCookie(w, s.cookie("", -1))
	return nil
}

func (s *Store) save(ctx context.Context, id string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func requestID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// generateID returns idLength random bytes, hex encoded.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
