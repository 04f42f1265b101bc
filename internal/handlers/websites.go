// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"sitecraft/internal/element"
	"sitecraft/internal/models"
	"sitecraft/internal/sites"
	"sitecraft/internal/workspace"
)

// Websites groups the website CRUD and publishing handlers.
type Websites struct {
	sites      *sites.Service
	workspaces *workspace.Manager
	baseURL    string
}

// NewWebsites creates the handler group. baseURL prefixes published URLs.
func NewWebsites(svc *sites.Service, workspaces *workspace.Manager, baseURL string) *Websites {
	return &Websites{sites: svc, workspaces: workspaces, baseURL: baseURL}
}

type websiteResponse struct {
	*models.Website
	PublicURL string `json:"public_url,omitempty"`
}

type documentResponse struct {
	Website websiteResponse  `json:"website"`
	Library *element.Library `json:"library"`
}

func (h *Websites) view(w *models.Website) websiteResponse {
	resp := websiteResponse{Website: w}
	if w.Published {
		resp.PublicURL = w.PublicURL(h.baseURL)
	}
	return resp
}

// Templates lists the starter templates.
func (h *Websites) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sites.Templates())
}

// List returns the current user's websites, most recently edited first.
func (h *Websites) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.sites.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]websiteResponse, len(list))
	for i := range list {
		out[i] = h.view(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Create creates a website from a starter template.
func (h *Websites) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in sites.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := h.sites.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse{Website: h.view(doc.Website), Library: doc.Library})
}

// Get returns a website with its stored document.
func (h *Websites) Get(w http.ResponseWriter, r *http.Request) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	doc, err := h.sites.Fetch(r.Context(), userID, websiteID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Website: h.view(doc.Website), Library: doc.Library})
}

// Update renames a website or changes its slug.
func (h *Websites) Update(w http.ResponseWriter, r *http.Request) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	var patch sites.MetadataPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	site, err := h.sites.UpdateMetadata(r.Context(), userID, websiteID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(site))
}

// Delete closes any open editing session and deletes the website.
func (h *Websites) Delete(w http.ResponseWriter, r *http.Request) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.workspaces.Close(r.Context(), userID, websiteID); err != nil {
		// The edits are about to be deleted with the website.
		slog.Warn("closing session of deleted website failed", "website_id", websiteID, "error", err)
	}
	if err := h.sites.Delete(r.Context(), userID, websiteID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish flushes pending edits and publishes the website.
func (h *Websites) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, h.sites.Publish)
}

// Unpublish takes the website offline.
func (h *Websites) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, h.sites.Unpublish)
}

func (h *Websites) setPublished(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, userID, websiteID uuid.UUID) (*models.Website, error)) {
	userID, websiteID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if ws, err := h.workspaces.Get(userID, websiteID); err == nil {
		if err := ws.Flush(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	site, err := fn(r.Context(), userID, websiteID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(site))
}

func (h *Websites) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	websiteID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, websiteID, true
}
