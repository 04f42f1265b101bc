// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package schema holds the declarative element configuration registry. Every
// element type (text, image, button, layout) describes its editable
// properties here, and the same description drives the property sidebar,
// default values for new instances, and validation of every edit.
package schema

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownType is returned when an element type is not registered.
	ErrUnknownType = errors.New("unknown element type")

	// ErrUnknownSubtype is returned when a subtype is not declared for its type.
	ErrUnknownSubtype = errors.New("unknown element subtype")

	// ErrUnknownProperty is returned when a property path does not resolve
	// against the merged property set of a type/subtype pair.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidValue is returned when a value does not fit its property kind.
	ErrInvalidValue = errors.New("invalid property value")
)

// Kind identifies how a property is edited and what values it accepts.
type Kind string

const (
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindCheckbox    Kind = "checkbox"
	KindSelect      Kind = "select"
	KindColor       Kind = "color"
	KindComposite   Kind = "composite"
	KindObject      Kind = "object"
	KindCustom      Kind = "custom"
	KindBoxModel    Kind = "boxModel"
	KindButtonGroup Kind = "buttonGroup"
	KindMediaUpload Kind = "mediaUpload"
)

// IsNested reports whether properties of this kind carry nested fields.
func (k Kind) IsNested() bool {
	switch k {
	case KindComposite, KindObject, KindBoxModel, KindMediaUpload:
		return true
	}
	return false
}

// Option is one enumerated choice of a select or buttonGroup property.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Condition is a visibility predicate over sibling values. A property with a
// condition is shown in the sidebar only when the sibling Field matches.
type Condition struct {
	Field    string `json:"field"`
	Equals   any    `json:"equals,omitempty"`
	NotEmpty bool   `json:"notEmpty,omitempty"`
}

// Visible evaluates the condition against the sibling values of the property.
func (c *Condition) Visible(siblings map[string]any) bool {
	if c == nil {
		return true
	}
	v, ok := siblings[c.Field]
	if c.NotEmpty {
		return ok && v != nil && v != "" && v != false
	}
	return ok && v == c.Equals
}

// DefaultFunc computes a default value from the concrete element subtype.
type DefaultFunc func(subtype string) any

// TransformFunc normalises user input before it is stored.
type TransformFunc func(v any) (any, error)

// PropertyConfig describes a single editable property.
type PropertyConfig struct {
	Kind        Kind
	Label       string
	Default     any
	DefaultFunc DefaultFunc
	Options     []Option
	Fields      map[string]*PropertyConfig
	Unit        string
	Min         *float64
	Max         *float64
	Step        *float64
	Transform   TransformFunc
	Condition   *Condition
	Renderer    string // custom sidebar renderer name, KindCustom only
}

// DefaultFor resolves the default value of the property for a subtype.
// Nested kinds resolve to a map built from their fields' defaults.
func (p *PropertyConfig) DefaultFor(subtype string) any {
	if p.DefaultFunc != nil {
		return p.DefaultFunc(subtype)
	}
	if p.Kind.IsNested() && p.Default == nil {
		out := make(map[string]any, len(p.Fields))
		for key, f := range p.Fields {
			if v := f.DefaultFor(subtype); v != nil {
				out[key] = v
			}
		}
		return out
	}
	return copyValue(p.Default)
}

// ElementConfig is the schema of one element type, optionally overlaid by
// subtype-specific properties.
type ElementConfig struct {
	Type           string
	Label          string
	IsLayout       bool
	DefaultSubtype string
	Properties     map[string]*PropertyConfig
	Subtypes       map[string]*ElementConfig

	// Subtype is set on merged configs returned by Registry.Config.
	Subtype string
}

// validate checks the structural invariants of a config tree.
func (c *ElementConfig) validate() error {
	if c.Type == "" {
		return fmt.Errorf("element config: empty type")
	}
	for key, p := range c.Properties {
		if err := validateProperty(c.Type+"."+key, p); err != nil {
			return err
		}
	}
	for name, sub := range c.Subtypes {
		for key, p := range sub.Properties {
			if err := validateProperty(c.Type+"/"+name+"."+key, p); err != nil {
				return err
			}
		}
	}
	if c.DefaultSubtype != "" {
		if _, ok := c.Subtypes[c.DefaultSubtype]; !ok {
			return fmt.Errorf("element config %s: default subtype %q not declared", c.Type, c.DefaultSubtype)
		}
	}
	return nil
}

// validateProperty enforces that nested kinds carry a non-empty field map
// and leaf kinds carry none.
func validateProperty(path string, p *PropertyConfig) error {
	if p == nil {
		return fmt.Errorf("property %s: nil config", path)
	}
	if p.Kind.IsNested() {
		if len(p.Fields) == 0 {
			return fmt.Errorf("property %s: %s kind requires nested fields", path, p.Kind)
		}
		for key, f := range p.Fields {
			if err := validateProperty(path+"."+key, f); err != nil {
				return err
			}
		}
		return nil
	}
	if len(p.Fields) > 0 {
		return fmt.Errorf("property %s: %s kind cannot carry nested fields", path, p.Kind)
	}
	if (p.Kind == KindSelect || p.Kind == KindButtonGroup) && len(p.Options) == 0 {
		return fmt.Errorf("property %s: %s kind requires options", path, p.Kind)
	}
	return nil
}

// PropertyKeys returns the sorted keys of the config's property set.
func (c *ElementConfig) PropertyKeys() []string {
	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SubtypeNames returns the sorted subtype names of the config.
func (c *ElementConfig) SubtypeNames() []string {
	names := make([]string, 0, len(c.Subtypes))
	for k := range c.Subtypes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// copyValue deep-copies maps and slices so resolved defaults never alias
// the registry's literals.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = copyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = copyValue(vv)
		}
		return out
	default:
		return v
	}
}
