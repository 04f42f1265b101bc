package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/store"
)

type fakeCacheLog struct {
	entries []store.CacheLogEntry
	logged  []string
}

func (f *fakeCacheLog) Log(_ context.Context, entityType string, _ uuid.UUID, action string) {
	f.logged = append(f.logged, entityType+":"+action)
}

func (f *fakeCacheLog) RecentEntries(_ context.Context, limit int) ([]store.CacheLogEntry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type countingFlusher struct{ calls int }

func (c *countingFlusher) InvalidateAll(context.Context) { c.calls++ }

type countingLocal struct{ calls int }

func (c *countingLocal) InvalidateAll() { c.calls++ }

type fixedSessions int

func (n fixedSessions) Len() int { return int(n) }

func TestAdminCacheLog(t *testing.T) {
	log := &fakeCacheLog{}
	for i := 0; i < 3; i++ {
		log.entries = append(log.entries, store.CacheLogEntry{
			ID: int64(i + 1), EntityType: "website", EntityID: uuid.New(), Action: "publish", InvalidatedAt: time.Now(),
		})
	}
	a := NewAdmin(log, nil, &countingLocal{}, fixedSessions(0))

	rec := httptest.NewRecorder()
	a.CacheLogEntries(rec, httptest.NewRequest(http.MethodGet, "/api/admin/cache-log?limit=2", nil))

	var got []store.CacheLogEntry
	decodeBody(t, rec, &got)
	if len(got) != 2 {
		t.Errorf("entries: got %d, want 2", len(got))
	}
}

func TestAdminCacheLogEmpty(t *testing.T) {
	a := NewAdmin(&fakeCacheLog{}, nil, &countingLocal{}, fixedSessions(0))

	rec := httptest.NewRecorder()
	a.CacheLogEntries(rec, httptest.NewRequest(http.MethodGet, "/api/admin/cache-log", nil))

	if rec.Body.String() != "[]\n" {
		t.Errorf("body: got %q, want empty array", rec.Body.String())
	}
}

func TestAdminFlushCache(t *testing.T) {
	log := &fakeCacheLog{}
	pages := &countingFlusher{}
	local := &countingLocal{}
	a := NewAdmin(log, pages, local, fixedSessions(0))

	rec := httptest.NewRecorder()
	a.FlushCache(rec, apiRequest(t, http.MethodPost, "/api/admin/cache/flush", nil, testSession(uuid.New(), "admin")))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d", rec.Code)
	}
	if pages.calls != 1 || local.calls != 1 {
		t.Errorf("flushes: L2=%d L1=%d, want 1 each", pages.calls, local.calls)
	}
	if len(log.logged) != 1 || log.logged[0] != "cache:flush" {
		t.Errorf("cache log: got %v", log.logged)
	}
}

func TestAdminStats(t *testing.T) {
	a := NewAdmin(&fakeCacheLog{}, nil, &countingLocal{}, fixedSessions(3))

	rec := httptest.NewRecorder()
	a.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

	var got statsResponse
	decodeBody(t, rec, &got)
	if got.OpenSessions != 3 {
		t.Errorf("open sessions: got %d, want 3", got.OpenSessions)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
