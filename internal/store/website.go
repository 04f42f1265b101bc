// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sitecraft/internal/models"
)

// WebsiteStore handles website metadata rows.
type WebsiteStore struct {
	db *sql.DB
}

// NewWebsiteStore creates a new WebsiteStore.
func NewWebsiteStore(db *sql.DB) *WebsiteStore {
	return &WebsiteStore{db: db}
}

const websiteColumns = `id, user_id, name, slug, template_id, published, published_at, created_at, last_modified`

func scanWebsite(scanner interface{ Scan(...any) error }) (*models.Website, error) {
	var w models.Website
	err := scanner.Scan(
		&w.ID, &w.UserID, &w.Name, &w.Slug, &w.TemplateID,
		&w.Published, &w.PublishedAt, &w.CreatedAt, &w.LastModified,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a website together with its empty document row.
func (s *WebsiteStore) Create(ctx context.Context, w *models.Website) (*models.Website, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create website: %w", err)
	}
	defer tx.Rollback()

	created, err := scanWebsite(tx.QueryRowContext(ctx, `
		INSERT INTO websites (user_id, name, slug, template_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+websiteColumns,
		w.UserID, w.Name, w.Slug, w.TemplateID,
	))
	if err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO website_documents (website_id) VALUES ($1)`, created.ID); err != nil {
		return nil, fmt.Errorf("create website document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create website: %w", err)
	}
	return created, nil
}

// FindByID retrieves a website by id.
func (s *WebsiteStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Website, error) {
	w, err := scanWebsite(s.db.QueryRowContext(ctx, `SELECT `+websiteColumns+` FROM websites WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find website by id: %w", err)
	}
	return w, nil
}

// FindBySlug retrieves a website by its public slug.
func (s *WebsiteStore) FindBySlug(ctx context.Context, slug string) (*models.Website, error) {
	w, err := scanWebsite(s.db.QueryRowContext(ctx, `SELECT `+websiteColumns+` FROM websites WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find website by slug: %w", err)
	}
	return w, nil
}

// SlugExists reports whether any website uses slug.
func (s *WebsiteStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM websites WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// ListByUser returns the websites of a user, most recently edited first.
func (s *WebsiteStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Website, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+websiteColumns+` FROM websites
		WHERE user_id = $1
		ORDER BY last_modified DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	defer rows.Close()

	var sites []models.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan website: %w", err)
		}
		sites = append(sites, *w)
	}
	return sites, rows.Err()
}

// Update writes the editable metadata of w and bumps last_modified.
// published_at is set the first time a website is published and cleared when
// it is unpublished.
func (s *WebsiteStore) Update(ctx context.Context, w *models.Website) (*models.Website, error) {
	updated, err := scanWebsite(s.db.QueryRowContext(ctx, `
		UPDATE websites SET
			name = $2,
			slug = $3,
			template_id = $4,
			published = $5,
			published_at = CASE WHEN $5 THEN COALESCE(published_at, NOW()) ELSE NULL END,
			last_modified = NOW()
		WHERE id = $1
		RETURNING `+websiteColumns,
		w.ID, w.Name, w.Slug, w.TemplateID, w.Published,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update website: %w", err)
	}
	return updated, nil
}

// Touch bumps last_modified without changing metadata.
func (s *WebsiteStore) Touch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE websites SET last_modified = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch website: %w", err)
	}
	return nil
}

// Delete removes a website. Its document and elements go with it through
// ON DELETE CASCADE.
func (s *WebsiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM websites WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	return nil
}
