// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workspace keeps the live editing sessions of a server process.
// A Workspace pairs a builder.Session with the autosave engine observing it;
// the Manager opens, shares, flushes and evicts them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/autosave"
	"sitecraft/internal/builder"
	"sitecraft/internal/models"
	"sitecraft/internal/schema"
	"sitecraft/internal/sites"
)

// ErrNotOpen is returned when no session is open for a website.
var ErrNotOpen = errors.New("no open editing session")

// Loader fetches documents and provides the persister for a user.
// *sites.Service satisfies it.
type Loader interface {
	Fetch(ctx context.Context, userID, websiteID uuid.UUID) (*sites.Document, error)
	Persister(userID uuid.UUID) autosave.Persister
}

// StatusPublisher receives every save status change. It must not block.
type StatusPublisher interface {
	Publish(websiteID string, s autosave.Status)
}

// Config holds the tunables of the sessions a Manager creates.
type Config struct {
	Debounce       time.Duration
	PersistTimeout time.Duration
	IdleTimeout    time.Duration
	HistoryLimit   int
}

// Workspace is one open document. All session access goes through Do, which
// serialises callers.
type Workspace struct {
	userID  uuid.UUID
	website *models.Website
	saver   *autosave.Engine
	now     func() time.Time

	mu       sync.Mutex
	session  *builder.Session
	lastUsed time.Time
}

// Website returns the website metadata as of opening.
func (w *Workspace) Website() *models.Website { return w.website }

// UserID returns the owner the workspace was opened for.
func (w *Workspace) UserID() uuid.UUID { return w.userID }

// Do runs fn with exclusive access to the session.
func (w *Workspace) Do(fn func(s *builder.Session) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = w.now()
	return fn(w.session)
}

// Status returns the autosave status.
func (w *Workspace) Status() autosave.Status { return w.saver.Status() }

// Flush persists pending edits immediately.
func (w *Workspace) Flush(ctx context.Context) error { return w.saver.Flush(ctx) }

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Manager owns the open workspaces, one per website. Tabs of the same user
// share the workspace of a website.
type Manager struct {
	loader    Loader
	registry  *schema.Registry
	cfg       Config
	publisher StatusPublisher
	now       func() time.Time

	mu   sync.Mutex
	open map[uuid.UUID]*Workspace
}

// NewManager creates a manager. publisher may be nil.
func NewManager(loader Loader, registry *schema.Registry, cfg Config, publisher StatusPublisher) *Manager {
	return &Manager{
		loader:    loader,
		registry:  registry,
		cfg:       cfg,
		publisher: publisher,
		now:       time.Now,
		open:      make(map[uuid.UUID]*Workspace),
	}
}

// Open returns the workspace of a website, loading the document when no
// session is open yet.
func (m *Manager) Open(ctx context.Context, userID, websiteID uuid.UUID) (*Workspace, error) {
	if ws, err := m.Get(userID, websiteID); err == nil {
		return ws, nil
	} else if !errors.Is(err, ErrNotOpen) {
		return nil, err
	}

	doc, err := m.loader.Fetch(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}
	ws, err := m.build(userID, doc)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.open[websiteID]; ok {
		// Another request opened it while we were loading.
		return existing, nil
	}
	m.open[websiteID] = ws
	slog.Info("editing session opened", "website_id", websiteID, "user_id", userID, "open", len(m.open))
	return ws, nil
}

func (m *Manager) build(userID uuid.UUID, doc *sites.Document) (*Workspace, error) {
	id := doc.Website.ID.String()

	opts := []autosave.Option{}
	if m.cfg.Debounce > 0 {
		opts = append(opts, autosave.WithDebounce(m.cfg.Debounce))
	}
	if m.cfg.PersistTimeout > 0 {
		opts = append(opts, autosave.WithTimeout(m.cfg.PersistTimeout))
	}
	if m.publisher != nil {
		opts = append(opts, autosave.WithStatusHook(func(s autosave.Status) {
			m.publisher.Publish(id, s)
		}))
	}
	saver := autosave.New(id, doc.Library, m.loader.Persister(userID), opts...)

	session, err := builder.NewSession(m.registry, doc.Library,
		builder.WithHistoryLimit(m.cfg.HistoryLimit),
		builder.WithObserver(saver),
	)
	if err != nil {
		return nil, fmt.Errorf("open session for website %s: %w", id, err)
	}
	return &Workspace{
		userID:   userID,
		website:  doc.Website,
		saver:    saver,
		now:      m.now,
		session:  session,
		lastUsed: m.now(),
	}, nil
}

// Get returns an open workspace. A workspace opened by another user is
// reported as sites.ErrForbidden.
func (m *Manager) Get(userID, websiteID uuid.UUID) (*Workspace, error) {
	m.mu.Lock()
	ws, ok := m.open[websiteID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotOpen
	}
	if ws.userID != userID {
		return nil, sites.ErrForbidden
	}
	return ws, nil
}

// Close flushes and drops the workspace of a website. Closing a website
// without a session is a no-op.
func (m *Manager) Close(ctx context.Context, userID, websiteID uuid.UUID) error {
	m.mu.Lock()
	ws, ok := m.open[websiteID]
	if ok && ws.userID != userID {
		m.mu.Unlock()
		return sites.ErrForbidden
	}
	delete(m.open, websiteID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	slog.Info("editing session closed", "website_id", websiteID)
	return ws.saver.Close(ctx)
}

// CloseAll flushes every open workspace, e.g. on shutdown.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	all := m.open
	m.open = make(map[uuid.UUID]*Workspace)
	m.mu.Unlock()

	var errs []error
	for id, ws := range all {
		if err := ws.saver.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close website %s: %w", id, err))
		}
	}
	slog.Info("editing sessions closed", "count", len(all), "failed", len(errs))
	return errors.Join(errs...)
}

// Len returns the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// EvictIdle closes the workspaces unused for longer than the idle timeout
// and returns how many were evicted.
func (m *Manager) EvictIdle(ctx context.Context) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []*Workspace
	for id, ws := range m.open {
		if ws.idleSince().Before(cutoff) {
			idle = append(idle, ws)
			delete(m.open, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range idle {
		if err := ws.saver.Close(ctx); err != nil {
			slog.Warn("idle session evicted with unsaved changes", "website_id", ws.website.ID, "error", err)
		} else {
			slog.Info("idle session evicted", "website_id", ws.website.ID)
		}
	}
	return len(idle)
}

// Run evicts idle workspaces periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if m.cfg.IdleTimeout <= 0 {
		return
	}
	interval := m.cfg.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(context.WithoutCancel(ctx))
		}
	}
}
