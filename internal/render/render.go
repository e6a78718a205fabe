// Package render converts note bodies to HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/vaultsite/internal/wikilink"
)

// Renderer is a goldmark engine bound to one link map. Safe for concurrent
// use; build a new one per snapshot.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer that resolves wiki-links against links under base.
func New(links *wikilink.LinkMap, base string) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&wikilink.Extension{Links: links, Base: base},
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md}
}

// Render converts a Markdown body to HTML. Note bodies are trusted vault
// content, so raw HTML passes through.
func (r *Renderer) Render(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return template.HTML(buf.String()), nil
}
