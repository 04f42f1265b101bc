// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"html/template"
	"regexp"
	"strings"
)

// Node kinds.
const (
	KindLayout = "layout"
	KindText   = "text"
	KindImage  = "image"
	KindButton = "button"
	KindError  = "error"
)

// ViewNode is the framework-neutral output of the renderer. The editor
// canvas receives it as JSON and the published page is produced from it by
// the HTML adapter, so both views share one layout computation.
type ViewNode struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	Tag      string            `json:"tag"`
	Layout   string            `json:"layout,omitempty"`
	Class    string            `json:"class,omitempty"`
	Text     string            `json:"text,omitempty"`
	HTML     template.HTML     `json:"html,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Style    Style             `json:"style,omitempty"`
	Selected bool              `json:"selected,omitempty"`
	Error    string            `json:"error,omitempty"`
	Children []*ViewNode       `json:"children,omitempty"`
}

// Decl is one CSS declaration.
type Decl struct {
	Prop  string `json:"prop"`
	Value string `json:"value"`
}

// Style is an ordered list of CSS declarations.
type Style []Decl

// Get returns the last value set for prop.
func (s Style) Get(prop string) (string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Prop == prop {
			return s[i].Value, true
		}
	}
	return "", false
}

var safeCSSValue = regexp.MustCompile(`^[a-zA-Z0-9#.,%() \-]+$`)

// CSS serialises the declarations for a style attribute. Values outside a
// conservative character set are dropped.
func (s Style) CSS() template.CSS {
	var b strings.Builder
	for _, d := range s {
		if d.Value == "" || !safeCSSValue.MatchString(d.Value) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d.Prop)
		b.WriteString(": ")
		b.WriteString(d.Value)
	}
	return template.CSS(b.String())
}

func errorNode(id, msg string) *ViewNode {
	return &ViewNode{ID: id, Kind: KindError, Tag: "div", Class: "sc-error", Error: msg}
}

// Walk calls fn for n and every node below it, depth first.
func (n *ViewNode) Walk(fn func(*ViewNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
