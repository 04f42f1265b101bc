// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"sitecraft/internal/element"
	"sitecraft/internal/markdown"
	"sitecraft/internal/schema"
)

// Renderer turns an element library into a ViewNode tree. It is a pure
// function of the library and the registry and never fails: broken
// instances become error placeholders so the rest of the page still shows.
type Renderer struct {
	registry *schema.Registry
}

// NewRenderer creates a renderer over the given registry.
func NewRenderer(registry *schema.Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render renders the subtree rooted at id.
func (r *Renderer) Render(lib *element.Library, id string) *ViewNode {
	return r.render(lib, id, map[string]bool{})
}

// RenderRoots renders every top-level instance in rendering order.
func (r *Renderer) RenderRoots(lib *element.Library) []*ViewNode {
	roots := lib.Roots()
	out := make([]*ViewNode, 0, len(roots))
	for _, id := range roots {
		out = append(out, r.Render(lib, id))
	}
	return out
}

func (r *Renderer) render(lib *element.Library, id string, ancestors map[string]bool) *ViewNode {
	in, ok := lib.ByID[id]
	if !ok || in == nil {
		return errorNode(id, "missing element")
	}
	if ancestors[id] {
		return errorNode(id, "element contains itself")
	}
	cfg, err := r.registry.Config(in.Type, in.Subtype)
	if err != nil {
		return errorNode(id, fmt.Sprintf("unknown element type %s", describeType(in)))
	}
	if in.Config == nil {
		return errorNode(id, "missing configuration")
	}
	for key, v := range in.Config {
		if _, err := schema.NormalizePath(cfg, key, v); err != nil {
			return errorNode(id, fmt.Sprintf("invalid property %s", key))
		}
	}
	defaults, err := r.registry.Defaults(in.Type, cfg.Subtype)
	if err != nil {
		return errorNode(id, err.Error())
	}
	p := props(merge(defaults, in.Config))

	var n *ViewNode
	switch {
	case cfg.IsLayout:
		n = r.layout(lib, in, cfg.Subtype, p, ancestors)
	case in.Type == schema.TypeText:
		n = text(in, cfg.Subtype, p)
	case in.Type == schema.TypeImage:
		n = image(in, p)
	case in.Type == schema.TypeButton:
		n = button(in, p)
	default:
		return errorNode(id, fmt.Sprintf("no renderer for %s", describeType(in)))
	}
	n.ID = in.ID
	n.Selected = lib.SelectedID == in.ID
	return n
}

func describeType(in *element.Instance) string {
	if in.Subtype == "" {
		return in.Type
	}
	return in.Type + "/" + in.Subtype
}

func (r *Renderer) layout(lib *element.Library, in *element.Instance, subtype string, p props, ancestors map[string]bool) *ViewNode {
	n := &ViewNode{
		Kind:   KindLayout,
		Tag:    "div",
		Layout: subtype,
		Class:  "sc-layout sc-layout-" + subtype,
	}
	gap := px(p.num("gap", 0))

	switch subtype {
	case schema.LayoutSidebar:
		cols := px(p.num("sidebarWidth", 280)) + " 1fr"
		if p.str("sidebarSide", "left") == "right" {
			cols = "1fr " + px(p.num("sidebarWidth", 280))
		}
		n.Style = Style{{"display", "grid"}, {"grid-template-columns", cols}, {"gap", gap}}
	case schema.LayoutGrid:
		n.Style = Style{{"display", "grid"}, {"grid-template-columns", repeatColumns(p.num("columns", 3))}, {"gap", gap}}
	case schema.LayoutFree:
		n.Style = Style{{"position", "relative"}, {"min-height", px(p.num("size.height", 0))}}
	case schema.LayoutNavbar:
		n.Tag = "nav"
		n.Style = Style{
			{"display", "flex"},
			{"flex-direction", "row"},
			{"align-items", "center"},
			{"justify-content", justifyContent(p.str("justify", "space-between"))},
			{"gap", gap},
		}
		if p.boolean("sticky") {
			n.Style = append(n.Style, Decl{"position", "sticky"}, Decl{"top", "0"}, Decl{"z-index", "10"})
		}
	case schema.LayoutFooter:
		n.Tag = "footer"
		n.Style = Style{
			{"display", "grid"},
			{"grid-template-columns", repeatColumns(p.num("columns", 3))},
			{"gap", gap},
			{"color", p.str("textColor", "")},
		}
	default:
		n.Style = Style{{"display", "flex"}, {"flex-direction", "column"}, {"gap", gap}}
	}
	n.Style = append(n.Style, Decl{"background-color", p.str("backgroundColor", "")})
	n.Style = append(n.Style, boxStyle(p)...)
	if subtype != schema.LayoutFree {
		n.Style = append(n.Style, sizeStyle(p)...)
	} else if w := p.num("size.width", 0); w > 0 {
		n.Style = append(n.Style, Decl{"width", px(w)})
	}

	ancestors[in.ID] = true
	defer delete(ancestors, in.ID)
	for _, cid := range in.Children {
		child := r.render(lib, cid, ancestors)
		if subtype == schema.LayoutFree && child.Kind != KindError {
			cp := props(lib.ByID[cid].Config)
			child.Style = append(child.Style,
				Decl{"position", "absolute"},
				Decl{"left", px(cp.num("position.x", 0))},
				Decl{"top", px(cp.num("position.y", 0))},
			)
		}
		n.Children = append(n.Children, child)
	}
	return n
}

func text(in *element.Instance, subtype string, p props) *ViewNode {
	tag := "p"
	if len(subtype) == 2 && subtype[0] == 'H' && subtype[1] >= '1' && subtype[1] <= '6' {
		tag = strings.ToLower(subtype)
	}
	n := &ViewNode{Kind: KindText, Tag: tag, Class: "sc-text", Text: in.Content}
	if p.str("format", "plain") == "markdown" {
		html, err := markdown.ToTemplateHTML(in.Content)
		if err != nil {
			slog.Warn("markdown conversion failed, rendering plain text", "id", in.ID, "error", err)
		} else {
			n.Tag = "div"
			n.Text = ""
			n.HTML = html
		}
	}
	n.Style = Style{
		{"font-size", px(p.num("fontSize", 16))},
		{"font-weight", p.str("fontWeight", "")},
		{"line-height", num(p.num("lineHeight", 0))},
		{"color", p.str("textColor", "")},
		{"text-align", p.str("textAlign", "")},
	}
	n.Style = append(n.Style, boxStyle(p)...)
	n.Style = append(n.Style, sizeStyle(p)...)
	return n
}

func image(in *element.Instance, p props) *ViewNode {
	src := p.str("media.url", "")
	if src == "" {
		src = strings.TrimSpace(in.Content)
	}
	if src == "" {
		return errorNode(in.ID, "image has no source")
	}
	n := &ViewNode{
		Kind:  KindImage,
		Tag:   "img",
		Class: "sc-image",
		Attrs: map[string]string{"src": src, "alt": p.str("media.alt", "")},
	}
	n.Style = Style{
		{"object-fit", p.str("objectFit", "cover")},
		{"border-radius", px(p.num("borderRadius", 0))},
		{"display", "block"},
		{"max-width", "100%"},
	}
	n.Style = append(n.Style, boxStyle(p)...)
	n.Style = append(n.Style, sizeStyle(p)...)
	return n
}

func button(in *element.Instance, p props) *ViewNode {
	n := &ViewNode{
		Kind:  KindButton,
		Tag:   "a",
		Class: "sc-button",
		Text:  in.Content,
		Attrs: map[string]string{"href": p.str("href", "#")},
	}
	if p.boolean("openInNewTab") {
		n.Attrs["target"] = "_blank"
		n.Attrs["rel"] = "noopener noreferrer"
	}
	bg := p.str("backgroundColor", "")
	fg := p.str("textColor", "")
	n.Style = Style{
		{"display", "inline-block"},
		{"text-decoration", "none"},
		{"font-size", px(p.num("fontSize", 16))},
		{"background-color", bg},
		{"color", fg},
		{"border-radius", px(p.num("borderRadius", 0))},
	}
	if w := p.num("borderWidth", 0); w > 0 {
		n.Style = append(n.Style, Decl{"border", px(w) + " solid " + p.str("borderColor", "transparent")})
	}
	n.Style = append(n.Style,
		Decl{"--sc-hover-bg", p.str("hover.backgroundColor", bg)},
		Decl{"--sc-hover-color", p.str("hover.textColor", fg)},
	)
	n.Style = append(n.Style, boxStyle(p)...)
	n.Style = append(n.Style, sizeStyle(p)...)
	return n
}

// boxStyle emits margin and padding shorthands when any side is set.
func boxStyle(p props) Style {
	var s Style
	for _, prop := range []string{"margin", "padding"} {
		base := "boxModelEditor." + prop + "."
		sides := [4]float64{
			p.num(base+"top", 0),
			p.num(base+"right", 0),
			p.num(base+"bottom", 0),
			p.num(base+"left", 0),
		}
		if sides == [4]float64{} {
			continue
		}
		s = append(s, Decl{prop, px(sides[0]) + " " + px(sides[1]) + " " + px(sides[2]) + " " + px(sides[3])})
	}
	return s
}

// sizeStyle emits width and height when set to a positive value. Zero means
// the element sizes to its content.
func sizeStyle(p props) Style {
	var s Style
	if w := p.num("size.width", 0); w > 0 {
		s = append(s, Decl{"width", px(w)})
	}
	if h := p.num("size.height", 0); h > 0 {
		s = append(s, Decl{"height", px(h)})
	}
	return s
}

func repeatColumns(n float64) string {
	cols := max(1, int(n))
	return "repeat(" + strconv.Itoa(cols) + ", minmax(0, 1fr))"
}

func justifyContent(v string) string {
	switch v {
	case "start":
		return "flex-start"
	case "end":
		return "flex-end"
	}
	return v
}

func px(v float64) string {
	return num(v) + "px"
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// props is a merged property bag with typed accessors.
type props map[string]any

func (p props) num(path string, def float64) float64 {
	if v, ok := element.Get(p, path); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

func (p props) str(path, def string) string {
	if v, ok := element.Get(p, path); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func (p props) boolean(path string) bool {
	v, _ := element.Get(p, path)
	b, _ := v.(bool)
	return b
}

// merge overlays cfg on defaults, recursing into nested objects so a
// partially set composite keeps the defaults of its other fields.
func merge(defaults map[string]any, cfg map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(cfg))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range cfg {
		dm, dok := out[k].(map[string]any)
		cm, cok := v.(map[string]any)
		if dok && cok {
			out[k] = merge(dm, cm)
			continue
		}
		out[k] = v
	}
	return out
}
