// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"sitecraft/internal/models"
)

// LocalCache is the in-process page cache of one server (engine L1).
type LocalCache interface {
	Invalidate(websiteID string)
}

// AuditLog records invalidations.
type AuditLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
}

// Invalidator drops every cached rendering of a website: the local L1
// entry, the shared L2 page and, on deletion, the mirrored save status.
// Each action is written to the audit log. Nil members are skipped.
type Invalidator struct {
	Local  LocalCache
	Pages  *PageCache
	Status *StatusMirror
	Log    AuditLog
}

// InvalidateWebsite implements sites.Invalidator.
func (inv *Invalidator) InvalidateWebsite(ctx context.Context, w *models.Website, action string) {
	if inv.Local != nil {
		inv.Local.Invalidate(w.ID.String())
	}
	if inv.Pages != nil {
		inv.Pages.Invalidate(ctx, w.Slug)
	}
	if inv.Status != nil && action == "delete" {
		inv.Status.Delete(ctx, w.ID.String())
	}
	if inv.Log != nil {
		inv.Log.Log(ctx, "website", w.ID, action)
	}
	slog.Debug("website caches invalidated", "website_id", w.ID, "slug", w.Slug, "action", action)
}
