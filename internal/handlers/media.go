package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/imaging"
	"sitecraft/internal/middleware"
	"sitecraft/internal/models"
	"sitecraft/internal/storage"
)

const (
	// maxUploadSize is the maximum allowed image upload size (10 MB).
	maxUploadSize = 10 << 20

	// maxImagePixels caps decoded dimensions to prevent memory bombs.
	maxImagePixels = 50_000_000

	defaultMediaPage = 50
)

// ObjectStorage is the bucket the media handlers upload to.
// *storage.Client implements it.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	Bucket() string
}

// MediaRepository persists media metadata. *store.MediaStore implements it.
type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, limit, offset int) ([]models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Media, error)
}

// Media handles image uploads referenced by mediaUpload properties.
type Media struct {
	store   MediaRepository
	objects ObjectStorage // nil when object storage is not configured
	now     func() time.Time
}

// NewMedia creates the media handler group. objects may be nil, in which
// case uploads answer 503.
func NewMedia(store MediaRepository, objects ObjectStorage) *Media {
	return &Media{store: store, objects: objects, now: time.Now}
}

type mediaResponse struct {
	*models.Media
	URL      string `json:"url"`
	ThumbURL string `json:"thumb_url,omitempty"`
}

func (h *Media) view(m *models.Media) mediaResponse {
	resp := mediaResponse{Media: m, URL: h.objects.FileURL(m.S3Key)}
	if m.ThumbS3Key != nil {
		resp.ThumbURL = h.objects.FileURL(*m.ThumbS3Key)
	}
	return resp
}

func (h *Media) available(w http.ResponseWriter) bool {
	if h.objects == nil {
		middleware.JSONError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return false
	}
	return true
}

// Upload stores an image and its thumbnail and records the metadata.
func (h *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.JSONError(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 10 MB")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.JSONError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.JSONError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	info, err := imaging.Probe(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	probe := models.Media{Width: info.Width, Height: info.Height}
	if probe.Pixels() > maxImagePixels {
		middleware.JSONError(w, http.StatusUnprocessableEntity, "image dimensions too large")
		return
	}

	ctx := r.Context()
	id := uuid.New()
	now := h.now()
	key := storage.ObjectKey(id, "", extension(info.ContentType()), now)
	if err := h.objects.Upload(ctx, key, info.ContentType(), bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", key)
		middleware.JSONError(w, http.StatusBadGateway, "failed to upload file")
		return
	}

	var thumbKey *string
	variants, err := imaging.GenerateVariants(data, imaging.DefaultVariants)
	if err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "key", key)
	}
	for _, v := range variants {
		tk := storage.ObjectKey(id, "_"+v.Name, extension(v.ContentType), now)
		if err := h.objects.Upload(ctx, tk, v.ContentType, bytes.NewReader(v.Data), int64(len(v.Data))); err != nil {
			slog.Warn("thumbnail upload failed", "error", err, "key", tk)
			continue
		}
		thumbKey = &tk
	}

	m := &models.Media{
		Filename:     id.String() + "." + extension(info.ContentType()),
		OriginalName: header.Filename,
		ContentType:  info.ContentType(),
		SizeBytes:    int64(len(data)),
		Width:        info.Width,
		Height:       info.Height,
		Bucket:       h.objects.Bucket(),
		S3Key:        key,
		ThumbS3Key:   thumbKey,
		UploaderID:   userID,
	}
	created, err := h.store.Create(ctx, m)
	if err != nil {
		h.cleanup(ctx, m.ObjectKeys()...)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(created))
}

// List returns the current user's uploads, newest first.
func (h *Media) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit := queryInt(r, "limit", defaultMediaPage)
	if limit > 200 {
		limit = 200
	}
	items, err := h.store.ListByUploader(r.Context(), userID, limit, queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]mediaResponse, len(items))
	for i := range items {
		out[i] = h.view(&items[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete removes an upload from the database and the bucket.
func (h *Media) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	m, err := h.store.FindByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if m == nil {
		middleware.JSONError(w, http.StatusNotFound, "media not found")
		return
	}
	if m.UploaderID != userID {
		middleware.JSONError(w, http.StatusForbidden, "media belongs to another user")
		return
	}

	if _, err := h.store.Delete(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	// Bucket cleanup is best-effort once the row is gone.
	h.cleanup(ctx, m.ObjectKeys()...)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Media) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := h.objects.Delete(ctx, key); err != nil {
			slog.Warn("s3 object delete failed", "error", err, "key", key)
		}
	}
}

// extension returns the file extension for an image MIME type.
func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}
