package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"sitecraft/internal/models"
	"sitecraft/internal/session"
)

// memObjects is an in-memory ObjectStorage.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if m.fail != nil {
		return m.fail
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memObjects) FileURL(key string) string { return "https://cdn.example.com/" + key }
func (m *memObjects) Bucket() string            { return "test-bucket" }

// memMedia is an in-memory MediaRepository.
type memMedia struct {
	mu   sync.Mutex
	rows []*models.Media
}

func (m *memMedia) Create(_ context.Context, in *models.Media) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *in
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	m.rows = append(m.rows, &out)
	return &out, nil
}

func (m *memMedia) ListByUploader(_ context.Context, uploaderID uuid.UUID, limit, offset int) ([]models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Media
	for _, r := range m.rows {
		if r.UploaderID == uploaderID {
			out = append(out, *r)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMedia) FindByID(_ context.Context, id uuid.UUID) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memMedia) Delete(_ context.Context, id uuid.UUID) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return r, nil
		}
	}
	return nil, nil
}

// testPNG encodes a width x height opaque PNG.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart upload of data as "file".
func uploadRequest(t *testing.T, filename string, data []byte, sess *session.Data) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()

	req := apiRequest(t, http.MethodPost, "/api/media", nil, sess)
	req.Body = io.NopCloser(&body)
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMediaUpload(t *testing.T) {
	objects := newMemObjects()
	repo := &memMedia{}
	h := NewMedia(repo, objects)
	sess := testSession(uuid.New(), "member")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "hero.png", testPNG(t, 800, 400), sess))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var got mediaResponse
	decodeBody(t, rec, &got)
	if got.Width != 800 || got.Height != 400 {
		t.Errorf("dimensions: got %dx%d, want 800x400", got.Width, got.Height)
	}
	if got.ContentType != "image/png" || got.OriginalName != "hero.png" {
		t.Errorf("metadata: type=%q name=%q", got.ContentType, got.OriginalName)
	}
	if !strings.HasPrefix(got.URL, "https://cdn.example.com/media/") || !strings.HasSuffix(got.URL, ".png") {
		t.Errorf("url: got %q", got.URL)
	}
	if got.ThumbS3Key == nil || !strings.HasSuffix(*got.ThumbS3Key, "_thumb.jpg") {
		t.Fatalf("thumbnail key: got %v", got.ThumbS3Key)
	}
	if objects.types[*got.ThumbS3Key] != "image/jpeg" {
		t.Errorf("thumbnail type: got %q", objects.types[*got.ThumbS3Key])
	}
	if len(objects.objects) != 2 {
		t.Errorf("stored objects: got %d, want original and thumbnail", len(objects.objects))
	}
}

func TestMediaUploadRejects(t *testing.T) {
	sess := testSession(uuid.New(), "member")

	t.Run("not an image", func(t *testing.T) {
		h := NewMedia(&memMedia{}, newMemObjects())
		rec := httptest.NewRecorder()
		h.Upload(rec, uploadRequest(t, "notes.txt", []byte("plain text"), sess))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
	})

	t.Run("no storage", func(t *testing.T) {
		h := NewMedia(&memMedia{}, nil)
		rec := httptest.NewRecorder()
		h.Upload(rec, uploadRequest(t, "a.png", testPNG(t, 4, 4), sess))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		objects := newMemObjects()
		objects.fail = errors.New("bucket unavailable")
		repo := &memMedia{}
		h := NewMedia(repo, objects)
		rec := httptest.NewRecorder()
		h.Upload(rec, uploadRequest(t, "a.png", testPNG(t, 4, 4), sess))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadGateway)
		}
		if len(repo.rows) != 0 {
			t.Error("metadata recorded for a failed upload")
		}
	})
}

func TestMediaListAndDelete(t *testing.T) {
	objects := newMemObjects()
	repo := &memMedia{}
	h := NewMedia(repo, objects)
	owner := testSession(uuid.New(), "member")

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "small.png", testPNG(t, 16, 16), owner))
	var uploaded mediaResponse
	decodeBody(t, rec, &uploaded)

	rec = httptest.NewRecorder()
	h.List(rec, apiRequest(t, http.MethodGet, "/api/media", nil, owner))
	var list []mediaResponse
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].ID != uploaded.ID {
		t.Fatalf("list: got %+v", list)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, apiRequest(t, http.MethodDelete, "/api/media/x", nil,
		testSession(uuid.New(), "member"), "id", uploaded.ID.String()))
	if rec.Code != http.StatusForbidden {
		t.Errorf("delete by other user: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, apiRequest(t, http.MethodDelete, "/api/media/x", nil, owner, "id", uploaded.ID.String()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rec.Code)
	}
	if len(objects.objects) != 0 {
		t.Errorf("objects left in bucket: %v", objects.objects)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, apiRequest(t, http.MethodDelete, "/api/media/x", nil, owner, "id", uploaded.ID.String()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
