// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sitecraft/internal/autosave"
)

const (
	statusKeyPrefix = "save:"

	// statusTTL keeps the last status of idle websites around for a day.
	statusTTL = 24 * time.Hour

	statusQueueSize = 256
)

type statusUpdate struct {
	websiteID string
	status    autosave.Status
}

// StatusMirror copies autosave status into Valkey so any server instance
// can report whether a website's edits are saved. Publish never blocks: the
// autosave engine calls it with its lock held, so writes are queued and
// performed by Run.
type StatusMirror struct {
	client *redis.Client
	queue  chan statusUpdate

	closeOnce sync.Once
	done      chan struct{}
}

// NewStatusMirror creates a mirror. Call Run to start writing.
func NewStatusMirror(client *redis.Client) *StatusMirror {
	return &StatusMirror{
		client: client,
		queue:  make(chan statusUpdate, statusQueueSize),
		done:   make(chan struct{}),
	}
}

// StatusKey returns the Valkey key holding a website's save status.
func StatusKey(websiteID string) string {
	return statusKeyPrefix + websiteID
}

// Publish queues a status write. When the queue is full the update is
// dropped; the next status change overwrites it anyway.
func (m *StatusMirror) Publish(websiteID string, s autosave.Status) {
	select {
	case m.queue <- statusUpdate{websiteID: websiteID, status: s}:
	default:
		slog.Warn("save status queue full, dropping update", "website_id", websiteID, "state", s.State)
	}
}

// Run writes queued updates until ctx is cancelled or Close is called, then
// drains what is left.
func (m *StatusMirror) Run(ctx context.Context) {
	for {
		select {
		case u := <-m.queue:
			m.write(ctx, u)
		case <-ctx.Done():
			m.drain(context.Background())
			return
		case <-m.done:
			m.drain(context.Background())
			return
		}
	}
}

// Close stops Run after pending updates are written.
func (m *StatusMirror) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *StatusMirror) drain(ctx context.Context) {
	for {
		select {
		case u := <-m.queue:
			m.write(ctx, u)
		default:
			return
		}
	}
}

func (m *StatusMirror) write(ctx context.Context, u statusUpdate) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.Set(ctx, u.websiteID, u.status); err != nil {
		slog.Warn("save status mirror write failed", "website_id", u.websiteID, "error", err)
	}
}

// Set writes a status synchronously.
func (m *StatusMirror) Set(ctx context.Context, websiteID string, s autosave.Status) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode save status: %w", err)
	}
	if err := m.client.Set(ctx, StatusKey(websiteID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("store save status: %w", err)
	}
	return nil
}

// Get reads the mirrored status of a website.
func (m *StatusMirror) Get(ctx context.Context, websiteID string) (autosave.Status, bool, error) {
	var s autosave.Status
	data, err := m.client.Get(ctx, StatusKey(websiteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("read save status: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, fmt.Errorf("decode save status: %w", err)
	}
	return s, true, nil
}

// Delete removes the mirrored status, e.g. when a website is deleted.
func (m *StatusMirror) Delete(ctx context.Context, websiteID string) {
	if err := m.client.Del(ctx, StatusKey(websiteID)).Err(); err != nil {
		slog.Warn("save status delete failed", "website_id", websiteID, "error", err)
	}
}
