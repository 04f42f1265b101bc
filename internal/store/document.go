// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"sitecraft/internal/autosave"
	"sitecraft/internal/element"
)

// ErrNoDocument is returned when a website has no document row.
var ErrNoDocument = errors.New("website document not found")

// DocumentStore persists element libraries. Document-level fields live in
// website_documents and each instance is one row of website_elements, so an
// autosave update touches only the instances that changed.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Load reads the element library of a website. It returns (nil, nil) when
// the website has no document.
func (s *DocumentStore) Load(ctx context.Context, websiteID uuid.UUID) (*element.Library, error) {
	var allIDs, configs []byte
	lib := element.New()
	err := s.db.QueryRowContext(ctx, `
		SELECT all_ids, selected_id, configs FROM website_documents WHERE website_id = $1
	`, websiteID).Scan(&allIDs, &lib.SelectedID, &configs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := json.Unmarshal(allIDs, &lib.AllIDs); err != nil {
		return nil, fmt.Errorf("decode all_ids: %w", err)
	}
	if err := json.Unmarshal(configs, &lib.Configs); err != nil {
		return nil, fmt.Errorf("decode configs: %w", err)
	}
	if lib.AllIDs == nil {
		lib.AllIDs = []string{}
	}
	if lib.Configs == nil {
		lib.Configs = element.Config{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT element_id, data FROM website_elements WHERE website_id = $1
	`, websiteID)
	if err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		var in element.Instance
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("decode element %s: %w", id, err)
		}
		lib.ByID[id] = &in
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	return lib, nil
}

// Apply writes one autosave update in a single transaction: changed
// instances are upserted, deleted ids removed, and document fields written
// only when present. The website's last_modified is bumped so published
// page caches keyed on it miss.
func (s *DocumentStore) Apply(ctx context.Context, websiteID uuid.UUID, u autosave.Update) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()

	// Sorted so concurrent writers lock rows in the same order.
	ids := make([]string, 0, len(u.Updates.ByID))
	for id := range u.Updates.ByID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := upsertElement(ctx, tx, websiteID, u.Updates.ByID[id]); err != nil {
			return err
		}
	}

	for _, id := range u.DeletedIDs {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM website_elements WHERE website_id = $1 AND element_id = $2
		`, websiteID, id); err != nil {
			return fmt.Errorf("delete element %s: %w", id, err)
		}
	}

	if u.Updates.AllIDs != nil || u.Updates.SelectedID != nil || u.Updates.Configs != nil {
		var allIDs, selected, configs any
		if u.Updates.AllIDs != nil {
			b, err := json.Marshal(*u.Updates.AllIDs)
			if err != nil {
				return fmt.Errorf("encode all_ids: %w", err)
			}
			allIDs = string(b)
		}
		if u.Updates.SelectedID != nil {
			selected = *u.Updates.SelectedID
		}
		if u.Updates.Configs != nil {
			b, err := json.Marshal(*u.Updates.Configs)
			if err != nil {
				return fmt.Errorf("encode configs: %w", err)
			}
			configs = string(b)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE website_documents SET
				all_ids = COALESCE($2::jsonb, all_ids),
				selected_id = COALESCE($3::text, selected_id),
				configs = COALESCE($4::jsonb, configs),
				updated_at = NOW()
			WHERE website_id = $1
		`, websiteID, allIDs, selected, configs)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("update document %s: %w", websiteID, ErrNoDocument)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE websites SET last_modified = NOW() WHERE id = $1`, websiteID); err != nil {
		return fmt.Errorf("touch website: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply: %w", err)
	}
	return nil
}

// Replace overwrites the whole document of a website, e.g. when it is
// created from a starter template.
func (s *DocumentStore) Replace(ctx context.Context, websiteID uuid.UUID, lib *element.Library) error {
	allIDs, err := json.Marshal(lib.AllIDs)
	if err != nil {
		return fmt.Errorf("encode all_ids: %w", err)
	}
	cfg := lib.Configs
	if cfg == nil {
		cfg = element.Config{}
	}
	configs, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode configs: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM website_elements WHERE website_id = $1`, websiteID); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}
	for _, id := range lib.AllIDs {
		if err := upsertElement(ctx, tx, websiteID, lib.ByID[id]); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO website_documents (website_id, all_ids, selected_id, configs)
		VALUES ($1, $2::jsonb, $3, $4::jsonb)
		ON CONFLICT (website_id) DO UPDATE SET
			all_ids = EXCLUDED.all_ids,
			selected_id = EXCLUDED.selected_id,
			configs = EXCLUDED.configs,
			updated_at = NOW()
	`, websiteID, string(allIDs), lib.SelectedID, string(configs)); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE websites SET last_modified = NOW() WHERE id = $1`, websiteID); err != nil {
		return fmt.Errorf("touch website: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func upsertElement(ctx context.Context, tx *sql.Tx, websiteID uuid.UUID, in *element.Instance) error {
	if in == nil {
		return fmt.Errorf("upsert element: %w", element.ErrCorrupt)
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode element %s: %w", in.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO website_elements (website_id, element_id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (website_id, element_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, websiteID, in.ID, string(data)); err != nil {
		return fmt.Errorf("upsert element %s: %w", in.ID, err)
	}
	return nil
}
