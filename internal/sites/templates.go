// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sites

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"gopkg.in/yaml.v3"

	"sitecraft/internal/element"
	"sitecraft/internal/schema"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// DefaultTemplate is used when a website is created without a template.
const DefaultTemplate = "blank"

// Template is a starter document. Elements are written as a tree; config
// keys may be dot paths ("boxModelEditor.padding.top") and override the
// registry defaults.
type Template struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Page        map[string]any `yaml:"page" json:"-"`
	Elements    []Node         `yaml:"elements" json:"-"`
}

// Node is one element of a template tree.
type Node struct {
	Type     string         `yaml:"type"`
	Subtype  string         `yaml:"subtype"`
	Content  string         `yaml:"content"`
	Config   map[string]any `yaml:"config"`
	Children []Node         `yaml:"children"`
}

// Templates is the set of starter templates, validated against a registry.
type Templates struct {
	registry *schema.Registry
	byID     map[string]*Template
	order    []string
}

// LoadTemplates parses the embedded templates and checks that each one
// instantiates into a valid library.
func LoadTemplates(registry *schema.Registry) (*Templates, error) {
	return loadTemplates(templateFS, "templates", registry)
}

func loadTemplates(fsys fs.FS, dir string, registry *schema.Registry) (*Templates, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	t := &Templates{registry: registry, byID: make(map[string]*Template)}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		var tmpl Template
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		if tmpl.ID == "" {
			return nil, fmt.Errorf("template %s: missing id", name)
		}
		if _, dup := t.byID[tmpl.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate id %s", name, tmpl.ID)
		}
		t.byID[tmpl.ID] = &tmpl
		t.order = append(t.order, tmpl.ID)

		n := 0
		if _, err := t.Instantiate(tmpl.ID, func() string { n++; return fmt.Sprintf("check-%d", n) }); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
	}
	slices.Sort(t.order)
	return t, nil
}

// List returns the templates ordered by id.
func (t *Templates) List() []*Template {
	out := make([]*Template, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// Get returns the template with the given id.
func (t *Templates) Get(id string) (*Template, bool) {
	tmpl, ok := t.byID[id]
	return tmpl, ok
}

// Instantiate builds a fresh element library from a template. Every
// instance gets a new id from newID and starts from its registry defaults.
func (t *Templates) Instantiate(id string, newID func() string) (*element.Library, error) {
	tmpl, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %s", ErrInvalid, id)
	}

	lib := element.New()
	page := element.Config(t.registry.PageDefaults())
	if p := t.registry.Page(); p != nil {
		var err error
		if page, err = applyOverrides(p, page, tmpl.Page); err != nil {
			return nil, fmt.Errorf("page config: %w", err)
		}
	}
	lib.Configs = page

	for _, n := range tmpl.Elements {
		if _, err := t.place(lib, n, newID); err != nil {
			return nil, err
		}
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

// place adds n and its children to lib in pre-order and returns its id.
func (t *Templates) place(lib *element.Library, n Node, newID func() string) (string, error) {
	cfg, err := t.registry.Config(n.Type, n.Subtype)
	if err != nil {
		return "", err
	}
	defaults, err := t.registry.Defaults(cfg.Type, cfg.Subtype)
	if err != nil {
		return "", err
	}
	config, err := applyOverrides(cfg, element.Config(defaults), n.Config)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", cfg.Type, cfg.Subtype, err)
	}
	if len(n.Children) > 0 && !cfg.IsLayout {
		return "", fmt.Errorf("%s cannot contain children", cfg.Type)
	}

	in := &element.Instance{
		ID:       newID(),
		Type:     cfg.Type,
		Subtype:  cfg.Subtype,
		Content:  n.Content,
		IsLayout: cfg.IsLayout,
		Config:   config,
	}
	lib.ByID[in.ID] = in
	lib.AllIDs = append(lib.AllIDs, in.ID)

	var children []string
	for _, c := range n.Children {
		cid, err := t.place(lib, c, newID)
		if err != nil {
			return "", err
		}
		children = append(children, cid)
	}
	lib.ByID[in.ID] = in.WithChildren(children)
	return in.ID, nil
}

// applyOverrides normalizes each override against cfg and writes it into
// base, in key order so failures are reported deterministically.
func applyOverrides(cfg *schema.ElementConfig, base element.Config, overrides map[string]any) (element.Config, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v, err := schema.NormalizePath(cfg, k, overrides[k])
		if err != nil {
			return nil, err
		}
		if base, err = element.Set(base, k, v); err != nil {
			return nil, err
		}
	}
	return base, nil
}
