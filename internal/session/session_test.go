// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test keys.
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sessionCookie returns the cookie Create set on w.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	ctx := context.Background()

	data := &Data{
		UserID:      uuid.New(),
		Email:       "owner@sitecraft.local",
		DisplayName: "Site Owner",
		Role:        "member",
	}

	w := httptest.NewRecorder()
	id, err := store.Create(ctx, w, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(id) != 2*idLength {
		t.Errorf("session id length = %d", len(id))
	}
	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly || cookie.Secure {
		t.Errorf("cookie flags: HttpOnly=%v Secure=%v", cookie.HttpOnly, cookie.Secure)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/websites", nil)
	req.AddCookie(cookie)

	got, err := store.Get(ctx, req)
	if err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if got.UserID != data.UserID || got.Email != data.Email || got.TwoFADone {
		t.Errorf("Get = %+v", got)
	}

	data.TwoFADone = true
	if err := store.Update(ctx, req, data); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := store.Get(ctx, req); got == nil || !got.TwoFADone {
		t.Errorf("after Update: %+v", got)
	}

	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if c := sessionCookie(t, w2); c.MaxAge != -1 {
		t.Errorf("destroyed cookie MaxAge = %d, want -1", c.MaxAge)
	}
	if got, _ := store.Get(ctx, req); got != nil {
		t.Error("expected nil after destroy")
	}
}

func TestSessionGetUnknownID(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "nonexistent-session-id"})

	data, err := store.Get(context.Background(), req)
	if err != nil || data != nil {
		t.Errorf("Get (expired) = %+v, %v", data, err)
	}
}

func TestSessionSecureCookie(t *testing.T) {
	store := NewStore(testValkeyClient(t), true)

	w := httptest.NewRecorder()
	if _, err := store.Create(context.Background(), w, &Data{UserID: uuid.New()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !sessionCookie(t, w).Secure {
		t.Error("expected Secure=true for secure store")
	}
}

// The following never reach Valkey.

func TestSessionWithoutCookie(t *testing.T) {
	store := NewStore(nil, false)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if data, err := store.Get(ctx, req); data != nil || err != nil {
		t.Errorf("Get = %+v, %v; want nil, nil", data, err)
	}
	if err := store.Update(ctx, req, &Data{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Update err = %v, want ErrNoSession", err)
	}
	if err := store.Destroy(ctx, httptest.NewRecorder(), req); err != nil {
		t.Errorf("Destroy: %v", err)
	}
}

func TestSessionGetSlidesExpiry(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, false)
	ctx := context.Background()

	w := httptest.NewRecorder()
	id, err := store.Create(ctx, w, &Data{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	client.Expire(ctx, keyPrefix+id, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, w))
	if got, err := store.Get(ctx, req); err != nil || got == nil {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if ttl := client.TTL(ctx, keyPrefix+id).Val(); ttl <= time.Hour {
		t.Errorf("TTL after Get = %v, want about %v", ttl, DefaultTTL)
	}
}
