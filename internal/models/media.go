// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Media is an uploaded image referenced by mediaUpload properties.
// Metadata is stored in PostgreSQL; the file itself lives in the bucket.
type Media struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bucket       string    `json:"bucket"`
	S3Key        string    `json:"s3_key"`
	ThumbS3Key   *string   `json:"thumb_s3_key,omitempty"`
	UploaderID   uuid.UUID `json:"uploader_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ObjectKeys lists every bucket object belonging to the upload.
func (m *Media) ObjectKeys() []string {
	keys := []string{m.S3Key}
	if m.ThumbS3Key != nil {
		keys = append(keys, *m.ThumbS3Key)
	}
	return keys
}

// Pixels is the decoded image area, used against upload limits.
func (m *Media) Pixels() int64 {
	return int64(m.Width) * int64(m.Height)
}
