// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package schema

import "strings"

// Element type names known to the builder.
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeButton = "button"
	TypeLayout = "layout"
)

// Layout subtypes. The renderer picks its arrangement strategy from these.
const (
	LayoutSingle  = "single"
	LayoutSidebar = "sidebar"
	LayoutGrid    = "grid"
	LayoutFree    = "free"
	LayoutNavbar  = "navbar"
	LayoutFooter  = "footer"
)

// textSizes maps text subtypes to their default font size in pixels.
var textSizes = map[string]float64{
	"H1":   72,
	"H2":   60,
	"H3":   48,
	"H4":   36,
	"H5":   30,
	"H6":   24,
	"pre1": 18,
	"pre2": 16,
	"pre3": 14,
}

// Builtin returns the registry of built-in element types. It panics only if
// the declarations below break a schema invariant.
func Builtin() *Registry {
	r, err := NewRegistry(pageConfig(), textConfig(), imageConfig(), buttonConfig(), layoutConfig())
	if err != nil {
		panic("schema: invalid builtin registry: " + err.Error())
	}
	return r
}

func num(v float64) *float64 { return &v }

func lower(v any) (any, error) {
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s)), nil
	}
	return v, nil
}

func trim(v any) (any, error) {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return v, nil
}

func sides(label string) *PropertyConfig {
	side := func(l string) *PropertyConfig {
		return &PropertyConfig{Kind: KindNumber, Label: l, Default: 0.0, Unit: "px", Min: num(0), Max: num(400), Step: num(1)}
	}
	return &PropertyConfig{
		Kind:  KindComposite,
		Label: label,
		Fields: map[string]*PropertyConfig{
			"top":    side("Top"),
			"right":  side("Right"),
			"bottom": side("Bottom"),
			"left":   side("Left"),
		},
	}
}

// boxModel is shared by every element: margin and padding per side.
func boxModel() *PropertyConfig {
	return &PropertyConfig{
		Kind:  KindBoxModel,
		Label: "Spacing",
		Fields: map[string]*PropertyConfig{
			"margin":  sides("Margin"),
			"padding": sides("Padding"),
		},
	}
}

func size(width, height float64) *PropertyConfig {
	return &PropertyConfig{
		Kind:  KindObject,
		Label: "Size",
		Fields: map[string]*PropertyConfig{
			"width":  {Kind: KindNumber, Label: "Width", Default: width, Unit: "px", Min: num(0), Max: num(4000)},
			"height": {Kind: KindNumber, Label: "Height", Default: height, Unit: "px", Min: num(0), Max: num(4000)},
		},
	}
}

func position() *PropertyConfig {
	return &PropertyConfig{
		Kind:  KindObject,
		Label: "Position",
		Fields: map[string]*PropertyConfig{
			"x": {Kind: KindNumber, Label: "X", Default: 0.0, Unit: "px"},
			"y": {Kind: KindNumber, Label: "Y", Default: 0.0, Unit: "px"},
		},
	}
}

func color(label, def string) *PropertyConfig {
	return &PropertyConfig{Kind: KindColor, Label: label, Default: def, Transform: lower}
}

var alignOptions = []Option{
	{Value: "left", Label: "Left"},
	{Value: "center", Label: "Center"},
	{Value: "right", Label: "Right"},
}

func pageConfig() *ElementConfig {
	return &ElementConfig{
		Type:  "page",
		Label: "Page",
		Properties: map[string]*PropertyConfig{
			"title":           {Kind: KindText, Label: "Page title", Default: "", Transform: trim},
			"backgroundColor": color("Background", "#ffffff"),
			"maxWidth":        {Kind: KindNumber, Label: "Max width", Default: 1200.0, Unit: "px", Min: num(320), Max: num(4000)},
			"fontFamily": {Kind: KindSelect, Label: "Font", Default: "sans-serif", Options: []Option{
				{Value: "sans-serif", Label: "Sans serif"},
				{Value: "serif", Label: "Serif"},
				{Value: "monospace", Label: "Monospace"},
			}},
		},
	}
}

func textConfig() *ElementConfig {
	subtypes := make(map[string]*ElementConfig, len(textSizes))
	for name := range textSizes {
		label := "Paragraph " + strings.TrimPrefix(name, "pre")
		if strings.HasPrefix(name, "H") {
			label = "Heading " + strings.TrimPrefix(name, "H")
		}
		subtypes[name] = &ElementConfig{Type: TypeText, Label: label}
	}
	return &ElementConfig{
		Type:           TypeText,
		Label:          "Text",
		DefaultSubtype: "pre2",
		Subtypes:       subtypes,
		Properties: map[string]*PropertyConfig{
			"fontSize": {
				Kind:  KindNumber,
				Label: "Font size",
				Unit:  "px",
				Min:   num(6),
				Max:   num(200),
				Step:  num(1),
				DefaultFunc: func(subtype string) any {
					if v, ok := textSizes[subtype]; ok {
						return v
					}
					return textSizes["pre2"]
				},
			},
			"fontWeight": {Kind: KindSelect, Label: "Weight", Options: []Option{
				{Value: "300", Label: "Light"},
				{Value: "400", Label: "Regular"},
				{Value: "600", Label: "Semibold"},
				{Value: "700", Label: "Bold"},
			}, DefaultFunc: func(subtype string) any {
				if strings.HasPrefix(subtype, "H") {
					return "700"
				}
				return "400"
			}},
			"lineHeight": {Kind: KindNumber, Label: "Line height", Default: 1.4, Min: num(0.5), Max: num(4), Step: num(0.1)},
			"textColor":  color("Text color", "#111111"),
			"textAlign":  {Kind: KindButtonGroup, Label: "Align", Default: "left", Options: alignOptions},
			"format": {Kind: KindSelect, Label: "Format", Default: "plain", Options: []Option{
				{Value: "plain", Label: "Plain text"},
				{Value: "markdown", Label: "Markdown"},
			}},
			"boxModelEditor": boxModel(),
			"size":           size(0, 0),
			"position":       position(),
		},
	}
}

func imageConfig() *ElementConfig {
	return &ElementConfig{
		Type:  TypeImage,
		Label: "Image",
		Properties: map[string]*PropertyConfig{
			"media": {
				Kind:  KindMediaUpload,
				Label: "Image",
				Fields: map[string]*PropertyConfig{
					"url":     {Kind: KindText, Label: "URL", Default: "", Transform: trim},
					"alt":     {Kind: KindText, Label: "Alt text", Default: ""},
					"mediaId": {Kind: KindText, Label: "Media ID", Default: ""},
				},
			},
			"objectFit": {Kind: KindSelect, Label: "Fit", Default: "cover", Options: []Option{
				{Value: "cover", Label: "Cover"},
				{Value: "contain", Label: "Contain"},
				{Value: "fill", Label: "Stretch"},
			}},
			"borderRadius":   {Kind: KindNumber, Label: "Corner radius", Default: 0.0, Unit: "px", Min: num(0), Max: num(500)},
			"boxModelEditor": boxModel(),
			"size":           size(320, 240),
			"position":       position(),
		},
	}
}

func buttonConfig() *ElementConfig {
	return &ElementConfig{
		Type:  TypeButton,
		Label: "Button",
		Properties: map[string]*PropertyConfig{
			"href":            {Kind: KindText, Label: "Link", Default: "#", Transform: trim},
			"openInNewTab":    {Kind: KindCheckbox, Label: "Open in new tab", Default: false},
			"backgroundColor": color("Background", "#2563eb"),
			"textColor":       color("Text color", "#ffffff"),
			"borderColor":     color("Border color", "transparent"),
			"borderWidth":     {Kind: KindNumber, Label: "Border width", Default: 0.0, Unit: "px", Min: num(0), Max: num(20)},
			"borderRadius":    {Kind: KindNumber, Label: "Corner radius", Default: 6.0, Unit: "px", Min: num(0), Max: num(200)},
			"fontSize":        {Kind: KindNumber, Label: "Font size", Default: 16.0, Unit: "px", Min: num(6), Max: num(96)},
			"hover": {
				Kind:      KindComposite,
				Label:     "Hover",
				Condition: &Condition{Field: "backgroundColor", NotEmpty: true},
				Fields: map[string]*PropertyConfig{
					"backgroundColor": color("Background", "#1d4ed8"),
					"textColor":       color("Text color", "#ffffff"),
				},
			},
			"boxModelEditor": boxModel(),
			"size":           size(0, 0),
			"position":       position(),
		},
	}
}

func layoutConfig() *ElementConfig {
	justify := []Option{
		{Value: "start", Label: "Start"},
		{Value: "center", Label: "Center"},
		{Value: "space-between", Label: "Spread"},
		{Value: "end", Label: "End"},
	}
	return &ElementConfig{
		Type:           TypeLayout,
		Label:          "Layout",
		IsLayout:       true,
		DefaultSubtype: LayoutSingle,
		Properties: map[string]*PropertyConfig{
			"gap":             {Kind: KindNumber, Label: "Gap", Default: 16.0, Unit: "px", Min: num(0), Max: num(400)},
			"backgroundColor": color("Background", "transparent"),
			"boxModelEditor":  boxModel(),
			"size":            size(0, 0),
			"position":        position(),
		},
		Subtypes: map[string]*ElementConfig{
			LayoutSingle: {Type: TypeLayout, Label: "Single column"},
			LayoutSidebar: {Type: TypeLayout, Label: "Sidebar", Properties: map[string]*PropertyConfig{
				"sidebarWidth": {Kind: KindNumber, Label: "Sidebar width", Default: 280.0, Unit: "px", Min: num(80), Max: num(1200)},
				"sidebarSide": {Kind: KindButtonGroup, Label: "Sidebar side", Default: "left", Options: []Option{
					{Value: "left", Label: "Left"},
					{Value: "right", Label: "Right"},
				}},
			}},
			LayoutGrid: {Type: TypeLayout, Label: "Grid", Properties: map[string]*PropertyConfig{
				"columns": {Kind: KindNumber, Label: "Columns", Default: 3.0, Min: num(1), Max: num(12), Step: num(1)},
			}},
			LayoutFree: {Type: TypeLayout, Label: "Free-form", Properties: map[string]*PropertyConfig{
				"size": size(0, 480),
			}},
			LayoutNavbar: {Type: TypeLayout, Label: "Navigation bar", Properties: map[string]*PropertyConfig{
				"sticky":          {Kind: KindCheckbox, Label: "Sticky", Default: false},
				"justify":         {Kind: KindSelect, Label: "Justify", Default: "space-between", Options: justify},
				"backgroundColor": color("Background", "#ffffff"),
			}},
			LayoutFooter: {Type: TypeLayout, Label: "Footer", Properties: map[string]*PropertyConfig{
				"columns":         {Kind: KindNumber, Label: "Columns", Default: 3.0, Min: num(1), Max: num(6), Step: num(1)},
				"textColor":       color("Text color", "#e5e7eb"),
				"backgroundColor": color("Background", "#111827"),
			}},
		},
	}
}
