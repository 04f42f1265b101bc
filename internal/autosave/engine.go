// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package autosave reconciles a live element library with the document
// store. It diffs every observed snapshot against the last persisted one,
// debounces bursts of edits and pushes minimal updates. Failed persists keep
// the baseline unchanged so the same changes are sent again, and Flush
// persists anything pending before a session is discarded.
package autosave

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sitecraft/internal/element"
)

const (
	DefaultDebounce   = 2 * time.Second
	DefaultTimeout    = 10 * time.Second
	DefaultMaxBackoff = time.Minute
)

// Persister writes an update to the document store.
type Persister interface {
	PersistElementLibraryUpdate(ctx context.Context, websiteID string, u Update) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, websiteID string, u Update) error

func (f PersisterFunc) PersistElementLibraryUpdate(ctx context.Context, websiteID string, u Update) error {
	return f(ctx, websiteID, u)
}

// State is the save state reported to the editor.
type State string

const (
	StateSaved   State = "saved"
	StatePending State = "pending"
	StateSaving  State = "saving"
	StateError   State = "error"
)

// Status is a point-in-time view of the engine.
type Status struct {
	State     State      `json:"state"`
	Error     string     `json:"error,omitempty"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
	Failures  int        `json:"failures,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce sets the quiet period before a persist.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithTimeout bounds each persist call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxBackoff caps the retry delay after failed persists.
func WithMaxBackoff(d time.Duration) Option {
	return func(e *Engine) { e.maxBackoff = d }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStatusHook registers fn to be called on every status change. fn runs
// with the engine lock held and must not block or call back into the engine.
func WithStatusHook(fn func(Status)) Option {
	return func(e *Engine) { e.onStatus = fn }
}

// Engine is the autosave loop of one website. It is safe for concurrent use.
type Engine struct {
	websiteID  string
	persister  Persister
	debounce   time.Duration
	timeout    time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
	onStatus   func(Status)

	// persistMu serialises persist calls so a slow write cannot race a
	// newer one for the same website.
	persistMu sync.Mutex

	mu       sync.Mutex
	baseline *element.Library
	current  *element.Library
	timer    *time.Timer
	gen      uint64
	failures int
	status   Status
	closed   bool
}

// New creates an engine whose baseline is the library as loaded from the
// store.
func New(websiteID string, baseline *element.Library, p Persister, opts ...Option) *Engine {
	e := &Engine{
		websiteID:  websiteID,
		persister:  p,
		debounce:   DefaultDebounce,
		timeout:    DefaultTimeout,
		maxBackoff: DefaultMaxBackoff,
		logger:     slog.Default(),
		baseline:   baseline,
		current:    baseline,
		status:     Status{State: StateSaved},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe records a new snapshot and restarts the debounce window. The
// snapshot must not be modified afterwards.
func (e *Engine) Observe(lib *element.Library) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.current = lib
	e.failures = 0

	if Diff(e.baseline, lib).Empty() {
		e.stopTimer()
		if e.status.State == StatePending || e.status.State == StateError {
			e.setStatus(Status{State: StateSaved, LastSaved: e.status.LastSaved})
		}
		return
	}
	if e.status.State != StateSaving {
		e.setStatus(Status{State: StatePending, LastSaved: e.status.LastSaved})
	}
	e.schedule(e.debounce)
}

// Status returns the current save status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Pending reports whether observed changes have not been persisted yet.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !Diff(e.baseline, e.current).Empty()
}

// Flush cancels the debounce timer and persists pending changes now. It
// returns the persist error, if any; on failure a retry is scheduled.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	e.stopTimer()
	e.mu.Unlock()
	return e.persist(ctx)
}

// Close flushes pending changes and stops the engine. Later observations
// are ignored and failures are not retried.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.stopTimer()
	e.mu.Unlock()

	err := e.persist(ctx)
	if err != nil {
		e.logger.Error("autosave close lost changes", "website_id", e.websiteID, "error", err)
	} else {
		e.logger.Info("autosave closed", "website_id", e.websiteID)
	}
	return err
}

// schedule arms the timer; e.mu must be held.
func (e *Engine) schedule(d time.Duration) {
	e.stopTimer()
	gen := e.gen
	e.timer = time.AfterFunc(d, func() { e.fire(gen) })
}

// stopTimer disarms the timer and invalidates any callback already
// running; e.mu must be held.
func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	stale := gen != e.gen || e.closed
	if !stale {
		e.timer = nil
	}
	e.mu.Unlock()
	if stale {
		return
	}
	// Errors are recorded in the status and retried by persist itself.
	_ = e.persist(context.Background())
}

func (e *Engine) persist(ctx context.Context) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	e.mu.Lock()
	snap := e.current
	u := Diff(e.baseline, snap)
	if u.Empty() {
		if e.status.State == StatePending {
			e.setStatus(Status{State: StateSaved, LastSaved: e.status.LastSaved})
		}
		e.mu.Unlock()
		return nil
	}
	e.setStatus(Status{State: StateSaving, LastSaved: e.status.LastSaved, Failures: e.failures})
	e.mu.Unlock()

	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, e.timeout)
	err := e.persister.PersistElementLibraryUpdate(pctx, e.websiteID, u)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.failures++
		e.setStatus(Status{
			State:     StateError,
			Error:     err.Error(),
			LastSaved: e.status.LastSaved,
			Failures:  e.failures,
		})
		if !e.closed {
			e.schedule(e.backoff())
		}
		e.logger.Warn("autosave persist failed",
			"website_id", e.websiteID,
			"failures", e.failures,
			"error", err,
		)
		return fmt.Errorf("persist website %s: %w", e.websiteID, err)
	}

	e.baseline = snap
	e.failures = 0
	now := time.Now()
	e.logger.Debug("autosave persisted",
		"website_id", e.websiteID,
		"changed", len(u.Updates.ByID),
		"deleted", len(u.DeletedIDs),
		"duration", time.Since(start),
	)
	if e.current != snap && !Diff(snap, e.current).Empty() {
		// Edits arrived while the write was in flight; their timer is
		// already armed by Observe.
		e.setStatus(Status{State: StatePending, LastSaved: &now})
		return nil
	}
	e.setStatus(Status{State: StateSaved, LastSaved: &now})
	return nil
}

// backoff doubles the debounce per consecutive failure, capped at
// maxBackoff; e.mu must be held.
func (e *Engine) backoff() time.Duration {
	d := e.debounce
	for i := 0; i < e.failures && d < e.maxBackoff; i++ {
		d *= 2
	}
	return min(d, e.maxBackoff)
}

// setStatus stores s and notifies the hook; e.mu must be held.
func (e *Engine) setStatus(s Status) {
	e.status = s
	if e.onStatus != nil {
		e.onStatus(s)
	}
}
