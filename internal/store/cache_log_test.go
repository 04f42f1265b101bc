// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCacheLogStoreLogIsBestEffortMock(t *testing.T) {
	db, mock := newMock(t)
	s := NewCacheLogStore(db)

	mock.ExpectExec(`INSERT INTO cache_invalidation_log`).WillReturnError(errors.New("read-only transaction"))

	// Must not panic or surface the error.
	s.Log(context.Background(), "website", uuid.New(), "publish")
}

func TestCacheLogStoreRecentEntries(t *testing.T) {
	db := testDB(t)
	s := NewCacheLogStore(db)
	ctx := context.Background()

	id1 := uuid.New()
	id2 := uuid.New()
	s.Log(ctx, "website", id1, "publish")
	s.Log(ctx, "website", id2, "unpublish")

	t.Cleanup(func() {
		db.Exec("DELETE FROM cache_invalidation_log WHERE entity_id IN ($1, $2)", id1, id2)
	})

	entries, err := s.RecentEntries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 entries, got %d", len(entries))
	}
	if entries[0].InvalidatedAt.Before(entries[1].InvalidatedAt) {
		t.Error("expected entries ordered by invalidated_at DESC")
	}
}
