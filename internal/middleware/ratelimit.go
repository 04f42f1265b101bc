// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter admits at most limit requests per key within a sliding
// window. Idle keys are swept lazily, so no goroutine is needed.
type RateLimiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	limit     int
	window    time.Duration
	keyOf     func(*http.Request) string
	now       func() time.Time
	nextSweep time.Time
}

// NewRateLimiter creates a limiter keyed by client IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		keyOf:  clientIP,
		now:    time.Now,
	}
}

// KeyBy replaces the request key function.
func (rl *RateLimiter) KeyBy(fn func(*http.Request) string) *RateLimiter {
	rl.keyOf = fn
	return rl
}

// allow records a hit for key. A rejected hit is not recorded; the returned
// duration is how long until the oldest hit leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.After(rl.nextSweep) {
		rl.sweep(cutoff)
		rl.nextSweep = now.Add(rl.window)
	}

	recent := dropBefore(rl.hits[key], cutoff)
	if len(recent) >= rl.limit {
		rl.hits[key] = recent
		return false, recent[0].Sub(cutoff)
	}
	rl.hits[key] = append(recent, now)
	return true, 0
}

// sweep forgets keys without hits after cutoff. Callers hold rl.mu.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for key, ts := range rl.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
}

// tracked reports how many keys are currently held.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.hits)
}

// dropBefore returns the suffix of the ascending slice ts after cutoff.
func dropBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

// Middleware answers 429 with Retry-After once a key is over its limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(rl.keyOf(r))
		if !ok {
			secs := int((retry + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			JSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers proxy headers (leftmost X-Forwarded-For entry, then
// X-Real-IP) over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
