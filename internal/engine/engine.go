// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders website documents. The Renderer walks the element
// library into a ViewNode tree; the Engine turns that tree into a complete
// HTML page with html/template and keeps an in-memory (L1) cache of
// published pages.
package engine

import (
	"bytes"
	"fmt"
	"html/template"

	"sitecraft/internal/element"
	"sitecraft/internal/models"
	"sitecraft/internal/schema"
)

// baseCSS is shared by every page. Hover colours come from per-button CSS
// variables so inline styles can carry them.
const baseCSS = template.CSS(`*,*::before,*::after{box-sizing:border-box}
body{margin:0}
.sc-page{margin:0 auto}
.sc-text{margin:0}
.sc-button{cursor:pointer;transition:background-color .15s,color .15s}
.sc-button:hover{background-color:var(--sc-hover-bg)!important;color:var(--sc-hover-color)!important}
.sc-error{padding:8px 12px;border:1px dashed #dc2626;color:#dc2626;font:14px/1.4 monospace}`)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body style="{{.BodyStyle.CSS}}">
<main class="sc-page" style="{{.MainStyle.CSS}}">
{{range .Nodes}}{{template "node" .}}
{{end}}</main>
</body>
</html>
{{define "attrs"}} class="{{.Class}}" data-element-id="{{.ID}}"{{with .Style}} style="{{.CSS}}"{{end}}{{with index .Attrs "href"}} href="{{.}}"{{end}}{{with index .Attrs "target"}} target="{{.}}"{{end}}{{with index .Attrs "rel"}} rel="{{.}}"{{end}}{{with index .Attrs "src"}} src="{{.}}"{{end}}{{if eq .Tag "img"}} alt="{{index .Attrs "alt"}}"{{end}}{{end}}
{{define "body"}}{{if .HTML}}{{.HTML}}{{else}}{{.Text}}{{end}}{{range .Children}}{{template "node" .}}{{end}}{{end}}
{{define "node"}}{{if eq .Kind "error"}}<div class="sc-error" data-element-id="{{.ID}}" role="alert">{{.Error}}</div>
{{- else if eq .Tag "img"}}<img{{template "attrs" .}}>
{{- else if eq .Tag "a"}}<a{{template "attrs" .}}>{{.Text}}</a>
{{- else if eq .Tag "h1"}}<h1{{template "attrs" .}}>{{template "body" .}}</h1>
{{- else if eq .Tag "h2"}}<h2{{template "attrs" .}}>{{template "body" .}}</h2>
{{- else if eq .Tag "h3"}}<h3{{template "attrs" .}}>{{template "body" .}}</h3>
{{- else if eq .Tag "h4"}}<h4{{template "attrs" .}}>{{template "body" .}}</h4>
{{- else if eq .Tag "h5"}}<h5{{template "attrs" .}}>{{template "body" .}}</h5>
{{- else if eq .Tag "h6"}}<h6{{template "attrs" .}}>{{template "body" .}}</h6>
{{- else if eq .Tag "p"}}<p{{template "attrs" .}}>{{template "body" .}}</p>
{{- else if eq .Tag "nav"}}<nav{{template "attrs" .}}>{{template "body" .}}</nav>
{{- else if eq .Tag "footer"}}<footer{{template "attrs" .}}>{{template "body" .}}</footer>
{{- else}}<div{{template "attrs" .}}>{{template "body" .}}</div>
{{- end}}{{end}}`

// PageData is the input of the page template.
type PageData struct {
	Title     string
	CSS       template.CSS
	BodyStyle Style
	MainStyle Style
	Nodes     []*ViewNode
}

// Engine renders complete pages. Published pages are cached in L1 keyed by
// website ID and last-modified time.
type Engine struct {
	registry *schema.Registry
	renderer *Renderer
	page     *template.Template
	cache    *pageCache
}

// New creates an engine with an empty L1 cache.
func New(registry *schema.Registry) *Engine {
	return &Engine{
		registry: registry,
		renderer: NewRenderer(registry),
		page:     template.Must(template.New("page").Parse(pageTemplate)),
		cache:    newPageCache(),
	}
}

// Renderer returns the view-tree renderer used for the editor canvas.
func (e *Engine) Renderer() *Renderer { return e.renderer }

// RenderPage renders the published page of a website, serving repeated
// requests for the same version from L1.
func (e *Engine) RenderPage(site *models.Website, lib *element.Library) ([]byte, error) {
	id := site.ID.String()
	if cached := e.cache.get(id, site.Version()); cached != nil {
		return cached, nil
	}
	out, err := e.RenderPreview(site, lib)
	if err != nil {
		return nil, err
	}
	e.cache.put(id, site.Version(), out)
	return out, nil
}

// RenderPreview renders the page without touching the cache. Used for the
// editor preview, whose document may be ahead of the stored version.
func (e *Engine) RenderPreview(site *models.Website, lib *element.Library) ([]byte, error) {
	p := props(merge(e.registry.PageDefaults(), lib.Configs))
	title := p.str("title", "")
	if title == "" {
		title = site.Name
	}
	data := PageData{
		Title: title,
		CSS:   baseCSS,
		BodyStyle: Style{
			{"background-color", p.str("backgroundColor", "")},
			{"font-family", p.str("fontFamily", "sans-serif")},
		},
		MainStyle: Style{{"max-width", px(p.num("maxWidth", 1200))}},
		Nodes:     e.renderer.RenderRoots(lib),
	}

	var buf bytes.Buffer
	if err := e.page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

// Invalidate removes every cached version of a website, e.g. after
// unpublishing.
func (e *Engine) Invalidate(websiteID string) {
	e.cache.invalidate(websiteID)
}

// InvalidateAll clears the L1 cache.
func (e *Engine) InvalidateAll() {
	e.cache.invalidateAll()
}
