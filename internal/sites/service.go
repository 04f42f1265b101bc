// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sites manages website projects: metadata, ownership, starter
// templates and the persisted element library. It is the external interface
// the builder loads documents from and autosave writes updates to.
package sites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"sitecraft/internal/autosave"
	"sitecraft/internal/element"
	"sitecraft/internal/models"
	"sitecraft/internal/slug"
)

var (
	ErrNotFound  = errors.New("website not found")
	ErrForbidden = errors.New("website belongs to another user")
	ErrInvalid   = errors.New("invalid website input")
	ErrSlugTaken = errors.New("slug already in use")
)

// MaxNameLength is the longest accepted website name, in runes.
const MaxNameLength = 200

// Invalidation actions passed to an Invalidator.
const (
	ActionPublish   = "publish"
	ActionUnpublish = "unpublish"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionPersist   = "persist"
)

// WebsiteRepository is the metadata storage used by the service.
type WebsiteRepository interface {
	Create(ctx context.Context, w *models.Website) (*models.Website, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Website, error)
	FindBySlug(ctx context.Context, slug string) (*models.Website, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Website, error)
	Update(ctx context.Context, w *models.Website) (*models.Website, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository is the element library storage used by the service.
type DocumentRepository interface {
	Load(ctx context.Context, websiteID uuid.UUID) (*element.Library, error)
	Apply(ctx context.Context, websiteID uuid.UUID, u autosave.Update) error
	Replace(ctx context.Context, websiteID uuid.UUID, lib *element.Library) error
}

// Invalidator drops cached renderings of a website's public page.
type Invalidator interface {
	InvalidateWebsite(ctx context.Context, w *models.Website, action string)
}

// Document is a website together with its element library.
type Document struct {
	Website *models.Website  `json:"website"`
	Library *element.Library `json:"library"`
}

// CreateInput describes a new website.
type CreateInput struct {
	Name       string `json:"name"`
	TemplateID string `json:"template_id"`
}

// MetadataPatch changes website metadata. Nil fields are left alone.
type MetadataPatch struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// Option configures a Service.
type Option func(*Service)

// WithInvalidator registers the cache invalidation hook.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithIDGenerator replaces uuid.NewString for element ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service implements website operations with an ownership check on every
// call that names a website.
type Service struct {
	websites    WebsiteRepository
	documents   DocumentRepository
	templates   *Templates
	invalidator Invalidator
	newID       func() string
}

// NewService creates a website service.
func NewService(websites WebsiteRepository, documents DocumentRepository, templates *Templates, opts ...Option) *Service {
	s := &Service{
		websites:  websites,
		documents: documents,
		templates: templates,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Templates returns the starter templates.
func (s *Service) Templates() []*Template {
	return s.templates.List()
}

// Fetch loads a website and its element library.
func (s *Service) Fetch(ctx context.Context, userID, websiteID uuid.UUID) (*Document, error) {
	w, err := s.owned(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}
	return s.document(ctx, w)
}

// FetchPublished loads a published website by slug for public serving.
// Unpublished websites are reported as not found.
func (s *Service) FetchPublished(ctx context.Context, slugValue string) (*Document, error) {
	w, err := s.websites.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("fetch published: %w", err)
	}
	if w == nil || !w.Published {
		return nil, ErrNotFound
	}
	return s.document(ctx, w)
}

// Website returns the metadata of a published website without loading its
// document, for cache lookups.
func (s *Service) Website(ctx context.Context, slugValue string) (*models.Website, error) {
	w, err := s.websites.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, fmt.Errorf("find website: %w", err)
	}
	if w == nil || !w.Published {
		return nil, ErrNotFound
	}
	return w, nil
}

func (s *Service) document(ctx context.Context, w *models.Website) (*Document, error) {
	lib, err := s.documents.Load(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if lib == nil {
		return nil, fmt.Errorf("%w: no document for %s", ErrNotFound, w.ID)
	}
	return &Document{Website: w, Library: lib}, nil
}

// List returns the websites owned by userID.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Website, error) {
	sites, err := s.websites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	if sites == nil {
		sites = []models.Website{}
	}
	return sites, nil
}

// Create makes a website from a starter template. The slug is derived from
// the name and made unique.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Document, error) {
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	tmplID := in.TemplateID
	if tmplID == "" {
		tmplID = DefaultTemplate
	}
	lib, err := s.templates.Instantiate(tmplID, s.newID)
	if err != nil {
		return nil, err
	}

	sl, err := slug.Unique(ctx, slug.Generate(name), s.websites.SlugExists)
	if err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}
	w, err := s.websites.Create(ctx, &models.Website{UserID: userID, Name: name, Slug: sl, TemplateID: &tmplID})
	if err != nil {
		return nil, fmt.Errorf("create website: %w", err)
	}
	if err := s.documents.Replace(ctx, w.ID, lib); err != nil {
		// Without a document the website could be listed but never opened.
		if derr := s.websites.Delete(ctx, w.ID); derr != nil {
			slog.Error("orphaned website after failed create", "website_id", w.ID, "error", derr)
		}
		return nil, fmt.Errorf("create website document: %w", err)
	}

	slog.Info("website created", "website_id", w.ID, "user_id", userID, "template", tmplID, "slug", sl)
	return &Document{Website: w, Library: lib}, nil
}

// Delete removes a website and its document.
func (s *Service) Delete(ctx context.Context, userID, websiteID uuid.UUID) error {
	w, err := s.owned(ctx, userID, websiteID)
	if err != nil {
		return err
	}
	if err := s.websites.Delete(ctx, w.ID); err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	s.invalidate(ctx, w, ActionDelete)
	slog.Info("website deleted", "website_id", w.ID, "user_id", userID)
	return nil
}

// UpdateMetadata renames a website or changes its slug.
func (s *Service) UpdateMetadata(ctx context.Context, userID, websiteID uuid.UUID, patch MetadataPatch) (*models.Website, error) {
	w, err := s.owned(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}
	old := *w
	next := *w
	if patch.Name != nil {
		if next.Name, err = validName(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil && *patch.Slug != w.Slug {
		if !slug.Valid(*patch.Slug) {
			return nil, fmt.Errorf("%w: slug must be lowercase letters, digits and single hyphens", ErrInvalid)
		}
		taken, err := s.websites.SlugExists(ctx, *patch.Slug)
		if err != nil {
			return nil, fmt.Errorf("update website: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrSlugTaken, *patch.Slug)
		}
		next.Slug = *patch.Slug
	}
	updated, err := s.save(ctx, &next)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, &old, ActionUpdate)
	return updated, nil
}

// Publish makes the website reachable under its public URL.
func (s *Service) Publish(ctx context.Context, userID, websiteID uuid.UUID) (*models.Website, error) {
	return s.setPublished(ctx, userID, websiteID, true)
}

// Unpublish takes the website offline.
func (s *Service) Unpublish(ctx context.Context, userID, websiteID uuid.UUID) (*models.Website, error) {
	return s.setPublished(ctx, userID, websiteID, false)
}

func (s *Service) setPublished(ctx context.Context, userID, websiteID uuid.UUID, published bool) (*models.Website, error) {
	w, err := s.owned(ctx, userID, websiteID)
	if err != nil {
		return nil, err
	}
	next := *w
	next.Published = published
	updated, err := s.save(ctx, &next)
	if err != nil {
		return nil, err
	}
	action := ActionUnpublish
	if published {
		action = ActionPublish
	}
	s.invalidate(ctx, updated, action)
	slog.Info("website publication changed", "website_id", w.ID, "published", published)
	return updated, nil
}

// Persister returns the autosave persister for websites owned by userID.
// Every call re-checks ownership, so a website deleted or transferred
// during an editing session stops accepting writes.
func (s *Service) Persister(userID uuid.UUID) autosave.Persister {
	return autosave.PersisterFunc(func(ctx context.Context, websiteID string, u autosave.Update) error {
		id, err := uuid.Parse(websiteID)
		if err != nil {
			return fmt.Errorf("%w: website id %q", ErrInvalid, websiteID)
		}
		w, err := s.owned(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.documents.Apply(ctx, id, u); err != nil {
			return fmt.Errorf("persist website %s: %w", id, err)
		}
		if w.Published {
			s.invalidate(ctx, w, ActionPersist)
		}
		return nil
	})
}

func (s *Service) save(ctx context.Context, w *models.Website) (*models.Website, error) {
	updated, err := s.websites.Update(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("update website: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// owned loads a website and checks that userID owns it.
func (s *Service) owned(ctx context.Context, userID, websiteID uuid.UUID) (*models.Website, error) {
	w, err := s.websites.FindByID(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("find website: %w", err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	if !w.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return w, nil
}

func (s *Service) invalidate(ctx context.Context, w *models.Website, action string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateWebsite(ctx, w, action)
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name is longer than %d characters", ErrInvalid, MaxNameLength)
	}
	return name, nil
}
