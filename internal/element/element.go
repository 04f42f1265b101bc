// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package element holds the normalised element library of a website
// document: every placed instance keyed by id, the rendering order, and the
// current selection.
//
// Instances stored in a Library are treated as immutable. Edits replace the
// instance with a modified copy, which lets history snapshots and the
// autosave baseline share unchanged instances instead of deep-copying the
// whole document on every edit.
package element

import "maps"

// Config is the property-value bag of an instance. Nested values are plain
// map[string]any and numbers are float64, matching what encoding/json
// produces, so bags compare equal across a persistence round trip.
type Config map[string]any

// Clone returns a deep copy of the bag.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	return Config(deepCopy(map[string]any(c)).(map[string]any))
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case Config:
		return deepCopy(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return v
	}
}

// Instance is one placed element.
type Instance struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Subtype  string   `json:"subtype,omitempty"`
	Content  string   `json:"content"`
	IsLayout bool     `json:"isLayout"`
	Children []string `json:"children,omitempty"`
	Config   Config   `json:"config"`
}

// Clone returns a deep copy of the instance.
func (in *Instance) Clone() *Instance {
	out := *in
	out.Children = append([]string(nil), in.Children...)
	if len(out.Children) == 0 {
		out.Children = nil
	}
	out.Config = in.Config.Clone()
	return &out
}

// WithConfig returns a shallow copy of the instance carrying cfg.
func (in *Instance) WithConfig(cfg Config) *Instance {
	out := *in
	out.Config = cfg
	return &out
}

// WithChildren returns a shallow copy of the instance carrying children.
func (in *Instance) WithChildren(children []string) *Instance {
	out := *in
	out.Children = children
	if len(out.Children) == 0 {
		out.Children = nil
	}
	return &out
}

// Library is the instance store of one website document.
type Library struct {
	ByID   map[string]*Instance `json:"byId"`
	AllIDs []string             `json:"allIds"`

	// SelectedID is empty when nothing is selected.
	SelectedID string `json:"selectedId"`

	// Configs holds the page-level property bag.
	Configs Config `json:"configs"`
}

// New returns an empty library.
func New() *Library {
	return &Library{
		ByID:    make(map[string]*Instance),
		AllIDs:  []string{},
		Configs: Config{},
	}
}

// Clone returns a structural copy: the id map, order and page bag are new,
// while instances are shared since they are never modified in place.
func (l *Library) Clone() *Library {
	return &Library{
		ByID:       maps.Clone(l.ByID),
		AllIDs:     append([]string{}, l.AllIDs...),
		SelectedID: l.SelectedID,
		Configs:    l.Configs,
	}
}

// DeepClone returns a copy that shares nothing with l.
func (l *Library) DeepClone() *Library {
	out := &Library{
		ByID:       make(map[string]*Instance, len(l.ByID)),
		AllIDs:     append([]string{}, l.AllIDs...),
		SelectedID: l.SelectedID,
		Configs:    l.Configs.Clone(),
	}
	for id, in := range l.ByID {
		out.ByID[id] = in.Clone()
	}
	return out
}

// Instance returns the instance with the given id.
func (l *Library) Instance(id string) (*Instance, bool) {
	in, ok := l.ByID[id]
	return in, ok
}

// Parent returns the id of the layout that owns id as a child.
func (l *Library) Parent(id string) (string, bool) {
	for _, pid := range l.AllIDs {
		p := l.ByID[pid]
		if p == nil {
			continue
		}
		for _, c := range p.Children {
			if c == id {
				return pid, true
			}
		}
	}
	return "", false
}

// Roots returns, in AllIDs order, the instances that are nobody's child.
func (l *Library) Roots() []string {
	owned := make(map[string]bool)
	for _, in := range l.ByID {
		for _, c := range in.Children {
			owned[c] = true
		}
	}
	roots := make([]string, 0, len(l.AllIDs))
	for _, id := range l.AllIDs {
		if !owned[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

// Descendants returns every id below id in depth-first order, excluding id
// itself. Ids already visited are skipped, so a corrupt cyclic document
// cannot loop forever.
func (l *Library) Descendants(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	var walk func(string)
	walk = func(cur string) {
		in, ok := l.ByID[cur]
		if !ok {
			return
		}
		for _, c := range in.Children {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// IsAncestor reports whether ancestor is id itself or lies above it.
func (l *Library) IsAncestor(ancestor, id string) bool {
	if ancestor == id {
		return true
	}
	for _, d := range l.Descendants(ancestor) {
		if d == id {
			return true
		}
	}
	return false
}
