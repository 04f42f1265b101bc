// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: in-memory repositories behind a real sites.Service, a workspace
// manager and request helpers. No external services are needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sitecraft/internal/autosave"
	"sitecraft/internal/element"
	"sitecraft/internal/engine"
	"sitecraft/internal/middleware"
	"sitecraft/internal/models"
	"sitecraft/internal/schema"
	"sitecraft/internal/session"
	"sitecraft/internal/sites"
	"sitecraft/internal/workspace"
)

// memWebsites is an in-memory sites.WebsiteRepository.
type memWebsites struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Website
}

func (m *memWebsites) Create(_ context.Context, w *models.Website) (*models.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *w
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	out.LastModified = out.CreatedAt
	m.rows[out.ID] = out
	return &out, nil
}

func (m *memWebsites) FindByID(_ context.Context, id uuid.UUID) (*models.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (m *memWebsites) FindBySlug(_ context.Context, s string) (*models.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.rows {
		if w.Slug == s {
			return &w, nil
		}
	}
	return nil, nil
}

func (m *memWebsites) SlugExists(ctx context.Context, s string) (bool, error) {
	w, err := m.FindBySlug(ctx, s)
	return w != nil, err
}

func (m *memWebsites) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Website
	for _, w := range m.rows {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWebsites) Update(_ context.Context, w *models.Website) (*models.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[w.ID]; !ok {
		return nil, nil
	}
	out := *w
	out.LastModified = time.Now()
	if !out.Published {
		out.PublishedAt = nil
	} else if out.PublishedAt == nil {
		now := time.Now()
		out.PublishedAt = &now
	}
	m.rows[w.ID] = out
	return &out, nil
}

func (m *memWebsites) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// memDocuments is an in-memory sites.DocumentRepository.
type memDocuments struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*element.Library
}

func (m *memDocuments) Load(_ context.Context, id uuid.UUID) (*element.Library, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return lib.DeepClone(), nil
}

func (m *memDocuments) Apply(_ context.Context, id uuid.UUID, u autosave.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = u.Apply(m.docs[id])
	return nil
}

func (m *memDocuments) Replace(_ context.Context, id uuid.UUID, lib *element.Library) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = lib.DeepClone()
	return nil
}

func (m *memDocuments) get(id uuid.UUID) *element.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id]
}

// testEnv bundles the handler groups with their in-memory backing stores.
type testEnv struct {
	webs       *memWebsites
	docs       *memDocuments
	sites      *sites.Service
	engine     *engine.Engine
	workspaces *workspace.Manager

	Websites *Websites
	Editor   *Editor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := schema.Builtin()
	tmpls, err := sites.LoadTemplates(registry)
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}

	env := &testEnv{
		webs: &memWebsites{rows: make(map[uuid.UUID]models.Website)},
		docs: &memDocuments{docs: make(map[uuid.UUID]*element.Library)},
	}
	env.engine = engine.New(registry)
	env.sites = sites.NewService(env.webs, env.docs, tmpls)
	env.workspaces = workspace.NewManager(env.sites, registry, workspace.Config{
		Debounce:       time.Hour,
		PersistTimeout: time.Second,
		IdleTimeout:    time.Minute,
		HistoryLimit:   20,
	}, nil)
	t.Cleanup(func() { env.workspaces.CloseAll(context.Background()) })

	env.Websites = NewWebsites(env.sites, env.workspaces, "https://sites.example.com")
	env.Editor = NewEditor(env.workspaces, env.engine)
	return env
}

// createSite creates a website for owner from the blank template.
func (env *testEnv) createSite(t *testing.T, owner uuid.UUID, name string) *models.Website {
	t.Helper()
	doc, err := env.sites.Create(context.Background(), owner, sites.CreateInput{Name: name, TemplateID: "blank"})
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	return doc.Website
}

// testSession returns a fully authenticated session for userID.
func testSession(userID uuid.UUID, role string) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       "owner@sitecraft.local",
		DisplayName: "Owner",
		Role:        role,
		TwoFADone:   true,
		CreatedAt:   time.Now(),
	}
}

// apiRequest builds a request carrying sess, a JSON body (when body is not
// nil) and chi URL parameters given as name/value pairs.
func apiRequest(t *testing.T, method, target string, body any, sess *session.Data, params ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

// decodeBody decodes the recorder's JSON body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// errorMessage returns the "error" field of a JSON error response.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorBody
	decodeBody(t, rec, &body)
	return body.Error
}
