package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html.tmpl
var embeddedTemplates embed.FS

// HTMLRenderer renders markdown with goldmark and pages with html/template.
type HTMLRenderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// NewHTMLRenderer builds the default renderer from the embedded templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.DefinitionList),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"safeHTML": func(b []byte) template.HTML { return template.HTML(b) }, // #nosec G203 - rendered from author markdown
		"date":     func(layout string, t time.Time) string { return t.Format(layout) },
		"postLink": func(s Site, shortTitle string) string { return s.Link + shortTitle },
	}).ParseFS(embeddedTemplates, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}
	return &HTMLRenderer{md: md, tmpl: tmpl}, nil
}

// Markdown implements Renderer.
func (r *HTMLRenderer) Markdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// Post implements Renderer.
func (r *HTMLRenderer) Post(ctx PostContext) ([]byte, error) {
	return r.execute("post.html.tmpl", ctx)
}

// List implements Renderer.
func (r *HTMLRenderer) List(ctx ListContext) ([]byte, error) {
	return r.execute("list.html.tmpl", ctx)
}

// Archive implements Renderer.
func (r *HTMLRenderer) Archive(ctx ArchiveContext) ([]byte, error) {
	return r.execute("archive.html.tmpl", ctx)
}

func (r *HTMLRenderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
