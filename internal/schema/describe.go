// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schema

// PropertyView is the serialisable form of a PropertyConfig with its default
// resolved for one subtype. The sidebar UI is generated from it.
type PropertyView struct {
	Key       string          `json:"key"`
	Kind      Kind            `json:"kind"`
	Label     string          `json:"label"`
	Default   any             `json:"defaultValue,omitempty"`
	Options   []Option        `json:"options,omitempty"`
	Fields    []*PropertyView `json:"properties,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Min       *float64        `json:"min,omitempty"`
	Max       *float64        `json:"max,omitempty"`
	Step      *float64        `json:"step,omitempty"`
	Condition *Condition      `json:"condition,omitempty"`
	Renderer  string          `json:"renderer,omitempty"`
}

// ElementView is the serialisable form of a merged ElementConfig.
type ElementView struct {
	Type       string          `json:"type"`
	Subtype    string          `json:"subtype,omitempty"`
	Label      string          `json:"label"`
	IsLayout   bool            `json:"isLayout"`
	Subtypes   []string        `json:"subtypes,omitempty"`
	Properties []*PropertyView `json:"properties"`
}

// Describe renders the merged config as a view with sorted property keys.
func (c *ElementConfig) Describe() *ElementView {
	v := &ElementView{
		Type:     c.Type,
		Subtype:  c.Subtype,
		Label:    c.Label,
		IsLayout: c.IsLayout,
		Subtypes: c.SubtypeNames(),
	}
	for _, key := range c.PropertyKeys() {
		v.Properties = append(v.Properties, describeProperty(key, c.Properties[key], c.Subtype))
	}
	return v
}

func describeProperty(key string, p *PropertyConfig, subtype string) *PropertyView {
	v := &PropertyView{
		Key:       key,
		Kind:      p.Kind,
		Label:     p.Label,
		Options:   p.Options,
		Unit:      p.Unit,
		Min:       p.Min,
		Max:       p.Max,
		Step:      p.Step,
		Condition: p.Condition,
		Renderer:  p.Renderer,
	}
	if p.Kind.IsNested() {
		sub := &ElementConfig{Properties: p.Fields}
		for _, fk := range sub.PropertyKeys() {
			v.Fields = append(v.Fields, describeProperty(fk, p.Fields[fk], subtype))
		}
	} else {
		v.Default = p.DefaultFor(subtype)
	}
	return v
}

// Catalog describes every registered type with its default subtype applied,
// plus each declared subtype separately.
func (r *Registry) Catalog() []*ElementView {
	var out []*ElementView
	for _, typ := range r.order {
		base := r.types[typ]
		cfg, err := r.Config(typ, "")
		if err == nil {
			out = append(out, cfg.Describe())
		}
		for _, name := range base.SubtypeNames() {
			if name == base.DefaultSubtype {
				continue
			}
			if cfg, err := r.Config(typ, name); err == nil {
				out = append(out, cfg.Describe())
			}
		}
	}
	return out
}
