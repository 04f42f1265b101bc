// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"sitecraft/internal/store"
)

// CacheLog reads the cache invalidation log. *store.CacheLogStore
// implements it.
type CacheLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// PageFlusher clears a page cache layer.
type PageFlusher interface {
	InvalidateAll(ctx context.Context)
}

// LocalFlusher clears the in-process page cache.
type LocalFlusher interface {
	InvalidateAll()
}

// SessionCounter reports the number of open editing sessions.
type SessionCounter interface {
	Len() int
}

// Admin groups the operator endpoints, all behind RequireAdmin.
type Admin struct {
	cacheLog CacheLog
	pages    PageFlusher // may be nil
	local    LocalFlusher
	sessions SessionCounter
}

// NewAdmin creates the admin handler group. pages may be nil when Valkey
// page caching is disabled.
func NewAdmin(cacheLog CacheLog, pages PageFlusher, local LocalFlusher, sessions SessionCounter) *Admin {
	return &Admin{cacheLog: cacheLog, pages: pages, local: local, sessions: sessions}
}

type statsResponse struct {
	OpenSessions int `json:"open_sessions"`
}

// Stats reports runtime counters.
func (a *Admin) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{OpenSessions: a.sessions.Len()})
}

// CacheLogEntries returns the most recent cache invalidations.
func (a *Admin) CacheLogEntries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit == 0 || limit > 500 {
		limit = 50
	}
	entries, err := a.cacheLog.RecentEntries(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.CacheLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// FlushCache drops every cached page from both cache layers.
func (a *Admin) FlushCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a.local.InvalidateAll()
	if a.pages != nil {
		a.pages.InvalidateAll(ctx)
	}
	a.cacheLog.Log(ctx, "cache", uuid.Nil, "flush")

	userID, _ := currentUser(r)
	slog.Info("page caches flushed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// Health is the unauthenticated liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
