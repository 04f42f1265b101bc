// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schema

import (
	"fmt"
	"maps"
	"math"
	"strings"
)

// Registry is a read-only lookup of element configurations. It is built
// once and shared by every editing session and the renderer.
type Registry struct {
	types map[string]*ElementConfig
	order []string
	page  *ElementConfig
}

// NewRegistry validates the given configs and returns a registry. page
// describes the top-level page configuration bag and may be nil.
func NewRegistry(page *ElementConfig, configs ...*ElementConfig) (*Registry, error) {
	r := &Registry{types: make(map[string]*ElementConfig, len(configs))}
	for _, c := range configs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.types[c.Type]; dup {
			return nil, fmt.Errorf("element config %s: registered twice", c.Type)
		}
		r.types[c.Type] = c
		r.order = append(r.order, c.Type)
	}
	if page != nil {
		if err := page.validate(); err != nil {
			return nil, err
		}
		r.page = page
	}
	return r, nil
}

// Types returns the registered type names in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// Config returns the merged configuration for a type and subtype. Subtype
// properties win over base properties with the same key. An empty subtype
// resolves to the type's default subtype, if any.
func (r *Registry) Config(typ, subtype string) (*ElementConfig, error) {
	base, ok := r.types[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	subtype, err := r.resolveSubtype(base, subtype)
	if err != nil {
		return nil, err
	}

	merged := &ElementConfig{
		Type:           base.Type,
		Label:          base.Label,
		IsLayout:       base.IsLayout,
		DefaultSubtype: base.DefaultSubtype,
		Subtypes:       base.Subtypes,
		Subtype:        subtype,
		Properties:     maps.Clone(base.Properties),
	}
	if merged.Properties == nil {
		merged.Properties = make(map[string]*PropertyConfig)
	}
	if sub := base.Subtypes[subtype]; sub != nil {
		if sub.Label != "" {
			merged.Label = sub.Label
		}
		for key, p := range sub.Properties {
			merged.Properties[key] = p
		}
	}
	return merged, nil
}

// Page returns the configuration of the page-level property bag.
func (r *Registry) Page() *ElementConfig {
	return r.page
}

// resolveSubtype applies the default subtype and rejects undeclared ones.
func (r *Registry) resolveSubtype(base *ElementConfig, subtype string) (string, error) {
	if subtype == "" {
		return base.DefaultSubtype, nil
	}
	if _, ok := base.Subtypes[subtype]; !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownSubtype, base.Type, subtype)
	}
	return subtype, nil
}

// Defaults resolves every property default for a type and subtype into a
// fresh value bag. Called once at instance creation, the result is stored
// literally in the instance so later schema changes do not affect it.
func (r *Registry) Defaults(typ, subtype string) (map[string]any, error) {
	cfg, err := r.Config(typ, subtype)
	if err != nil {
		return nil, err
	}
	return defaultsOf(cfg), nil
}

// PageDefaults resolves the defaults of the page-level property bag.
func (r *Registry) PageDefaults() map[string]any {
	if r.page == nil {
		return map[string]any{}
	}
	return defaultsOf(r.page)
}

func defaultsOf(cfg *ElementConfig) map[string]any {
	out := make(map[string]any, len(cfg.Properties))
	for key, p := range cfg.Properties {
		if v := p.DefaultFor(cfg.Subtype); v != nil {
			out[key] = v
		}
	}
	return out
}

// Lookup resolves a dot-delimited property path against a merged config.
// Paths reaching into a custom property accept any remaining suffix.
func Lookup(cfg *ElementConfig, path string) (*PropertyConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnknownProperty)
	}
	segments := strings.Split(path, ".")
	props := cfg.Properties
	var p *PropertyConfig
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: malformed path %q", ErrUnknownProperty, path)
		}
		if p != nil && p.Kind == KindCustom {
			return p, nil
		}
		next, ok := props[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownProperty, strings.Join(segments[:i+1], "."), cfg.Type)
		}
		p = next
		props = p.Fields
	}
	return p, nil
}

// Normalize validates value against the property at path and returns the
// value to store. Numbers are stored as float64 and clamped to the declared
// range; transforms run last.
func (r *Registry) Normalize(typ, subtype, path string, value any) (any, error) {
	cfg, err := r.Config(typ, subtype)
	if err != nil {
		return nil, err
	}
	return NormalizePath(cfg, path, value)
}

// NormalizePath is Normalize against an already merged config.
func NormalizePath(cfg *ElementConfig, path string, value any) (any, error) {
	p, err := Lookup(cfg, path)
	if err != nil {
		return nil, err
	}
	return normalize(path, p, value)
}

func normalize(path string, p *PropertyConfig, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	var out any
	switch p.Kind {
	case KindText:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text", ErrInvalidValue, path)
		}
		out = s
	case KindNumber:
		f, ok := toFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s expects a number", ErrInvalidValue, path)
		}
		if p.Min != nil && f < *p.Min {
			f = *p.Min
		}
		if p.Max != nil && f > *p.Max {
			f = *p.Max
		}
		out = f
	case KindCheckbox:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects true or false", ErrInvalidValue, path)
		}
		out = b
	case KindSelect, KindButtonGroup:
		s, ok := value.(string)
		if !ok || !hasOption(p.Options, s) {
			return nil, fmt.Errorf("%w: %s expects one of %s", ErrInvalidValue, path, optionValues(p.Options))
		}
		out = s
	case KindColor:
		s, ok := value.(string)
		if !ok || !IsColor(s) {
			return nil, fmt.Errorf("%w: %s expects a hex color", ErrInvalidValue, path)
		}
		out = strings.ToLower(s)
	case KindCustom:
		out = copyValue(value)
	default:
		m, ok := asMap(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects an object", ErrInvalidValue, path)
		}
		obj := make(map[string]any, len(m))
		for key, v := range m {
			f, ok := p.Fields[key]
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, path, key)
			}
			nv, err := normalize(path+"."+key, f, v)
			if err != nil {
				return nil, err
			}
			obj[key] = nv
		}
		out = obj
	}

	if p.Transform != nil {
		return p.Transform(out)
	}
	return out, nil
}

// IsColor reports whether s is a hex color (#rgb, #rrggbb, #rrggbbaa),
// "transparent" or empty (unset).
func IsColor(s string) bool {
	if s == "" || s == "transparent" {
		return true
	}
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func optionValues(opts []Option) string {
	vals := make([]string, len(opts))
	for i, o := range opts {
		vals[i] = o.Value
	}
	return strings.Join(vals, ", ")
}
