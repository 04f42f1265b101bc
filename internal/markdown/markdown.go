// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts the source of markdown-formatted text elements
// into HTML using goldmark. Raw HTML in the source is dropped: text content
// is written by site owners but served to anonymous visitors.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToTemplateHTML is ToHTML typed for direct use in html/template. The
// result is trusted because the renderer omits raw HTML from the source.
func ToTemplateHTML(source string) (template.HTML, error) {
	s, err := ToHTML(source)
	if err != nil {
		return "", err
	}
	return template.HTML(s), nil
}
