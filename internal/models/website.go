// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Website is the metadata of one website project. Its element library is
// stored separately (see store.DocumentStore).
type Website struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	TemplateID   *string    `json:"template_id,omitempty"`
	Published    bool       `json:"published"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastModified time.Time  `json:"last_modified"`
}

// OwnedBy reports whether userID owns the website.
func (w *Website) OwnedBy(userID uuid.UUID) bool {
	return w.UserID == userID
}

// PublicURL returns the address of the published site under base.
func (w *Website) PublicURL(base string) string {
	return strings.TrimRight(base, "/") + "/sites/" + w.Slug
}

// Version identifies the current content revision for caching.
func (w *Website) Version() int64 {
	return w.LastModified.UnixNano()
}
