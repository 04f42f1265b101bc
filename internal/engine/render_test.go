// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecraft/internal/element"
	"sitecraft/internal/schema"
)

// newLibrary builds a library from instances, in the given order.
func newLibrary(instances ...*element.Instance) *element.Library {
	lib := element.New()
	for _, in := range instances {
		lib.ByID[in.ID] = in
		lib.AllIDs = append(lib.AllIDs, in.ID)
	}
	return lib
}

func styleValue(t *testing.T, n *ViewNode, prop string) string {
	t.Helper()
	v, ok := n.Style.Get(prop)
	require.True(t, ok, "style %s not set on %s", prop, n.ID)
	return v
}

func TestRenderPlaceholders(t *testing.T) {
	r := NewRenderer(schema.Builtin())

	tests := []struct {
		name string
		in   *element.Instance
		msg  string
	}{
		{
			name: "unknown type",
			in:   &element.Instance{ID: "x", Type: "video", Config: element.Config{}},
			msg:  "unknown element type video",
		},
		{
			name: "unknown subtype",
			in:   &element.Instance{ID: "x", Type: schema.TypeText, Subtype: "H9", Config: element.Config{}},
			msg:  "unknown element type text/H9",
		},
		{
			name: "missing config",
			in:   &element.Instance{ID: "x", Type: schema.TypeText, Subtype: "H1"},
			msg:  "missing configuration",
		},
		{
			name: "wrong value type",
			in:   &element.Instance{ID: "x", Type: schema.TypeText, Config: element.Config{"fontSize": true}},
			msg:  "invalid property fontSize",
		},
		{
			name: "unknown property",
			in:   &element.Instance{ID: "x", Type: schema.TypeButton, Config: element.Config{"nope": 1.0}},
			msg:  "invalid property nope",
		},
		{
			name: "image without source",
			in:   &element.Instance{ID: "x", Type: schema.TypeImage, Config: element.Config{}},
			msg:  "image has no source",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := r.Render(newLibrary(tt.in), "x")
			assert.Equal(t, KindError, n.Kind)
			assert.Equal(t, "x", n.ID)
			assert.Equal(t, tt.msg, n.Error)
		})
	}
}

func TestRenderBrokenChildKeepsSiblings(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(
		&element.Instance{ID: "root", Type: schema.TypeLayout, Subtype: schema.LayoutSingle, IsLayout: true, Children: []string{"ok", "bad", "gone"}, Config: element.Config{}},
		&element.Instance{ID: "ok", Type: schema.TypeText, Subtype: "pre2", Content: "hello", Config: element.Config{}},
		&element.Instance{ID: "bad", Type: "carousel", Config: element.Config{}},
	)

	n := r.Render(lib, "root")
	require.Len(t, n.Children, 3)
	assert.Equal(t, KindText, n.Children[0].Kind)
	assert.Equal(t, "hello", n.Children[0].Text)
	assert.Equal(t, KindError, n.Children[1].Kind)
	assert.Equal(t, KindError, n.Children[2].Kind)
	assert.Equal(t, "missing element", n.Children[2].Error)
}

func TestRenderCycleDoesNotRecurse(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(
		&element.Instance{ID: "a", Type: schema.TypeLayout, IsLayout: true, Children: []string{"b"}, Config: element.Config{}},
		&element.Instance{ID: "b", Type: schema.TypeLayout, IsLayout: true, Children: []string{"a"}, Config: element.Config{}},
	)

	n := r.Render(lib, "a")
	require.Len(t, n.Children, 1)
	require.Len(t, n.Children[0].Children, 1)
	assert.Equal(t, "element contains itself", n.Children[0].Children[0].Error)
}

func TestRenderText(t *testing.T) {
	r := NewRenderer(schema.Builtin())

	h1 := r.Render(newLibrary(&element.Instance{ID: "h", Type: schema.TypeText, Subtype: "H1", Content: "Title", Config: element.Config{}}), "h")
	assert.Equal(t, "h1", h1.Tag)
	assert.Equal(t, "72px", styleValue(t, h1, "font-size"))
	assert.Equal(t, "700", styleValue(t, h1, "font-weight"))

	lib := newLibrary(&element.Instance{ID: "p", Type: schema.TypeText, Subtype: "pre2", Content: "Body", Config: element.Config{
		"fontSize":       20.0,
		"boxModelEditor": map[string]any{"padding": map[string]any{"top": 8.0}},
	}})
	p := r.Render(lib, "p")
	assert.Equal(t, "p", p.Tag)
	assert.Equal(t, "20px", styleValue(t, p, "font-size"))
	assert.Equal(t, "8px 0px 0px 0px", styleValue(t, p, "padding"))
	_, hasMargin := p.Style.Get("margin")
	assert.False(t, hasMargin)
}

func TestRenderMarkdownText(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(&element.Instance{ID: "m", Type: schema.TypeText, Content: "**bold**", Config: element.Config{"format": "markdown"}})

	n := r.Render(lib, "m")
	assert.Equal(t, "div", n.Tag)
	assert.Empty(t, n.Text)
	assert.Contains(t, string(n.HTML), "<strong>bold</strong>")
}

func TestRenderImageSource(t *testing.T) {
	r := NewRenderer(schema.Builtin())

	fromMedia := r.Render(newLibrary(&element.Instance{ID: "i", Type: schema.TypeImage, Content: "/fallback.png", Config: element.Config{
		"media": map[string]any{"url": "/media/a.png", "alt": "A"},
	}}), "i")
	assert.Equal(t, "/media/a.png", fromMedia.Attrs["src"])
	assert.Equal(t, "A", fromMedia.Attrs["alt"])

	fromContent := r.Render(newLibrary(&element.Instance{ID: "i", Type: schema.TypeImage, Content: " /fallback.png ", Config: element.Config{}}), "i")
	assert.Equal(t, KindImage, fromContent.Kind)
	assert.Equal(t, "/fallback.png", fromContent.Attrs["src"])
	assert.Equal(t, "320px", styleValue(t, fromContent, "width"))
}

func TestRenderButton(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(&element.Instance{ID: "b", Type: schema.TypeButton, Content: "Go", Config: element.Config{
		"href":         "https://example.com",
		"openInNewTab": true,
		"borderWidth":  2.0,
		"hover":        map[string]any{"textColor": "#000000"},
	}})

	n := r.Render(lib, "b")
	assert.Equal(t, "a", n.Tag)
	assert.Equal(t, "Go", n.Text)
	assert.Equal(t, "https://example.com", n.Attrs["href"])
	assert.Equal(t, "_blank", n.Attrs["target"])
	assert.Equal(t, "2px solid transparent", styleValue(t, n, "border"))
	assert.Equal(t, "#1d4ed8", styleValue(t, n, "--sc-hover-bg"), "unset hover fields keep their defaults")
	assert.Equal(t, "#000000", styleValue(t, n, "--sc-hover-color"))
}

func TestRenderLayouts(t *testing.T) {
	r := NewRenderer(schema.Builtin())

	grid := r.Render(newLibrary(&element.Instance{ID: "g", Type: schema.TypeLayout, Subtype: schema.LayoutGrid, IsLayout: true, Config: element.Config{"columns": 4.0}}), "g")
	assert.Equal(t, "repeat(4, minmax(0, 1fr))", styleValue(t, grid, "grid-template-columns"))
	assert.Equal(t, schema.LayoutGrid, grid.Layout)

	side := r.Render(newLibrary(&element.Instance{ID: "s", Type: schema.TypeLayout, Subtype: schema.LayoutSidebar, IsLayout: true, Config: element.Config{"sidebarSide": "right"}}), "s")
	assert.Equal(t, "1fr 280px", styleValue(t, side, "grid-template-columns"))

	nav := r.Render(newLibrary(&element.Instance{ID: "n", Type: schema.TypeLayout, Subtype: schema.LayoutNavbar, IsLayout: true, Config: element.Config{"sticky": true}}), "n")
	assert.Equal(t, "nav", nav.Tag)
	assert.Equal(t, "sticky", styleValue(t, nav, "position"))

	foot := r.Render(newLibrary(&element.Instance{ID: "f", Type: schema.TypeLayout, Subtype: schema.LayoutFooter, IsLayout: true, Config: element.Config{}}), "f")
	assert.Equal(t, "footer", foot.Tag)

	single := r.Render(newLibrary(&element.Instance{ID: "c", Type: schema.TypeLayout, IsLayout: true, Config: element.Config{}}), "c")
	assert.Equal(t, "column", styleValue(t, single, "flex-direction"))
}

func TestRenderFreeLayoutPositionsChildren(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(
		&element.Instance{ID: "free", Type: schema.TypeLayout, Subtype: schema.LayoutFree, IsLayout: true, Children: []string{"b"}, Config: element.Config{}},
		&element.Instance{ID: "b", Type: schema.TypeButton, Content: "Go", Config: element.Config{
			"position": map[string]any{"x": 40.0, "y": 12.5},
		}},
	)

	n := r.Render(lib, "free")
	assert.Equal(t, "relative", styleValue(t, n, "position"))
	assert.Equal(t, "480px", styleValue(t, n, "min-height"))
	child := n.Children[0]
	assert.Equal(t, "absolute", styleValue(t, child, "position"))
	assert.Equal(t, "40px", styleValue(t, child, "left"))
	assert.Equal(t, "12.5px", styleValue(t, child, "top"))
}

func TestRenderRootsAndSelection(t *testing.T) {
	r := NewRenderer(schema.Builtin())
	lib := newLibrary(
		&element.Instance{ID: "row", Type: schema.TypeLayout, IsLayout: true, Children: []string{"t"}, Config: element.Config{}},
		&element.Instance{ID: "t", Type: schema.TypeText, Content: "x", Config: element.Config{}},
		&element.Instance{ID: "b", Type: schema.TypeButton, Config: element.Config{}},
	)
	lib.SelectedID = "t"

	roots := r.RenderRoots(lib)
	require.Len(t, roots, 2)
	assert.Equal(t, "row", roots[0].ID)
	assert.Equal(t, "b", roots[1].ID)

	var selected []string
	for _, n := range roots {
		n.Walk(func(v *ViewNode) {
			if v.Selected {
				selected = append(selected, v.ID)
			}
		})
	}
	assert.Equal(t, []string{"t"}, selected)
}

func TestStyleCSSDropsUnsafeValues(t *testing.T) {
	s := Style{
		{"color", "#ff0000"},
		{"width", ""},
		{"background", "url(javascript:alert(1))"},
		{"font-family", "x;}body{display:none"},
		{"grid-template-columns", "repeat(2, minmax(0, 1fr))"},
	}
	assert.Equal(t, "color: #ff0000; grid-template-columns: repeat(2, minmax(0, 1fr))", string(s.CSS()))
}
