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

// MediaStore handles uploaded image metadata.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

const mediaColumns = `id, filename, original_name, content_type, size_bytes,
	width, height, bucket, s3_key, thumb_s3_key, uploader_id, created_at`

func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.ContentType, &m.SizeBytes,
		&m.Width, &m.Height, &m.Bucket, &m.S3Key, &m.ThumbS3Key, &m.UploaderID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a media record and returns it with the generated id.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	created, err := scanMedia(s.db.QueryRowContext(ctx, `
		INSERT INTO media (filename, original_name, content_type, size_bytes,
			width, height, bucket, s3_key, thumb_s3_key, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+mediaColumns,
		m.Filename, m.OriginalName, m.ContentType, m.SizeBytes,
		m.Width, m.Height, m.Bucket, m.S3Key, m.ThumbS3Key, m.UploaderID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return created, nil
}

// FindByID retrieves a media record by id.
func (s *MediaStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	return m, nil
}

// ListByUploader returns a page of a user's uploads, newest first.
func (s *MediaStore) ListByUploader(ctx context.Context, uploaderID uuid.UUID, limit, offset int) ([]models.Media, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mediaColumns+` FROM media
		WHERE uploader_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, uploaderID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Delete removes a media record and returns it so the caller can remove the
// stored objects.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx, `DELETE FROM media WHERE id = $1 RETURNING `+mediaColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}
