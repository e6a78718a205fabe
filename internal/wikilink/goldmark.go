package wikilink

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindWikiLink is the goldmark node kind of a parsed [[wiki-link]].
var KindWikiLink = ast.NewNodeKind("WikiLink")

// Node is an inline [[Target]] or [[Target|Alias]] reference.
type Node struct {
	ast.BaseInline

	Target string
	Label  string
}

// Kind implements ast.Node.
func (n *Node) Kind() ast.NodeKind {
	return KindWikiLink
}

// Dump implements ast.Node.
func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Target": n.Target,
		"Label":  n.Label,
	}, nil)
}

// Extension plugs wiki-link parsing and rendering into a goldmark engine.
// Links and Base are fixed for the lifetime of the engine.
type Extension struct {
	Links *LinkMap
	Base  string
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	// The standard link parser sits at priority 200.
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(inlineParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&nodeRenderer{links: e.Links, base: e.Base}, 199),
	))
}

type inlineParser struct{}

var (
	openDelim  = []byte("[[")
	closeDelim = []byte("]]")
)

func (inlineParser) Trigger() []byte {
	return []byte{'['}
}

func (inlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, openDelim) {
		return nil
	}
	end := bytes.Index(line[len(openDelim):], closeDelim)
	if end < 0 {
		return nil
	}
	inner := string(line[len(openDelim) : len(openDelim)+end])
	n := &Node{Target: inner, Label: inner}
	if i := strings.IndexByte(inner, '|'); i >= 0 {
		n.Target = strings.TrimSpace(inner[:i])
		n.Label = strings.TrimSpace(inner[i+1:])
	}
	if strings.TrimSpace(n.Target) == "" {
		return nil
	}
	block.Advance(len(openDelim) + end + len(closeDelim))
	return n
}

type nodeRenderer struct {
	links *LinkMap
	base  string
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, r.render)
}

func (r *nodeRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Node)
	res := Resolve(n.Target, r.links, r.base)

	// Dangling links degrade to plain text.
	if res.Dangling() {
		_, _ = w.Write(util.EscapeHTML([]byte(n.Label)))
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<a class="wikilink" href="`)
	_, _ = w.Write(util.EscapeHTML([]byte(res.Href)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Label)))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkSkipChildren, nil
}

// scanner parses bodies with the same inline rules as the page renderer so
// the link graph only holds links that render as links.
var scanner = goldmark.New(goldmark.WithExtensions(extension.GFM, &Extension{}))

// Targets returns the raw target of every wiki-link in body, deduplicated, in
// document order. Tokens inside code spans and code blocks are skipped.
func Targets(body []byte) []string {
	doc := scanner.Parser().Parse(text.NewReader(body))
	seen := make(map[string]struct{})
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		wl, ok := n.(*Node)
		if !ok {
			return ast.WalkContinue, nil
		}
		if _, dup := seen[wl.Target]; !dup {
			seen[wl.Target] = struct{}{}
			out = append(out, wl.Target)
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}
