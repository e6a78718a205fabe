// Package parser extracts frontmatter, wiki-links, tags and titles from vault notes.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/vaultsite/internal/wikilink"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// YAMLFormat is the only frontmatter format vault notes use.
var YAMLFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, wiki-link tokens, and tags from raw
// Markdown bytes. Notes without frontmatter, or with frontmatter that is not
// valid YAML, are treated as body only.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// Frontmatter decodes the frontmatter block of data. It returns
// frontmatter.ErrNotFound when the note has none.
func Frontmatter(data []byte) (map[string]any, []byte, error) {
	var fm map[string]any
	body, err := frontmatter.MustParse(bytes.NewReader(data), &fm, YAMLFormat)
	if err != nil {
		return nil, nil, err
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body, nil
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, YAMLFormat)
	if err != nil {
		return nil, string(data)
	}
	return fm, string(body)
}

// extractLinks returns the wiki-link tokens of body, deduplicated by target.
// Aliases are dropped: [[Target|Alias]] yields [[Target]]. Targets are kept
// as written so they resolve the way the rendered page does.
func extractLinks(body string) []string {
	targets := wikilink.Targets([]byte(body))
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, "[["+t+"]]")
	}
	return out
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
