// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitecraft/internal/engine"
	"sitecraft/internal/sites"
)

// PageStore is the shared (L2) cache of rendered published pages.
// *cache.PageCache implements it.
type PageStore interface {
	Get(ctx context.Context, slug string) ([]byte, bool)
	Set(ctx context.Context, slug string, html []byte)
}

// Public serves published websites. It checks the L2 page cache before
// loading the document and rendering it through the engine, whose own L1
// cache absorbs repeated renders of the same version.
type Public struct {
	sites  *sites.Service
	engine *engine.Engine
	pages  PageStore // may be nil
}

// NewPublic creates the public handler group. pages may be nil.
func NewPublic(svc *sites.Service, eng *engine.Engine, pages PageStore) *Public {
	return &Public{sites: svc, engine: eng, pages: pages}
}

// Site renders the published page of the website with the given slug.
func (p *Public) Site(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if p.pages != nil {
		if cached, ok := p.pages.Get(ctx, slugParam); ok {
			writeHTML(w, cached)
			return
		}
	}

	doc, err := p.sites.FetchPublished(ctx, slugParam)
	if errors.Is(err, sites.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("fetch published site failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rendered, err := p.engine.RenderPage(doc.Website, doc.Library)
	if err != nil {
		slog.Error("render page failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if p.pages != nil {
		p.pages.Set(ctx, slugParam, rendered)
	}
	writeHTML(w, rendered)
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
