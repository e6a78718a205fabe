package render

import (
	"strings"
	"testing"

	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/wikilink"
)

func newRenderer() *Renderer {
	links := wikilink.BuildLinkMap([]models.Entry{
		{ID: "research/issue-17506"},
		{ID: "concepts/collection-semantics"},
	})
	return New(links, "/galaxy-brain")
}

func TestRender(t *testing.T) {
	r := newRenderer()
	cases := []struct {
		name, in, want string
	}{
		{"heading id", "# Issue Summary\n", `<h1 id="issue-summary">Issue Summary</h1>`},
		{"wikilink", "See [[Issue 17506]].\n", `<a class="wikilink" href="/galaxy-brain/research/issue-17506/">Issue 17506</a>`},
		{"prefix", "[[Collection]]\n", `href="/galaxy-brain/concepts/collection-semantics/"`},
		{"dangling", "[[Nowhere]]\n", "<p>Nowhere</p>"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |\n", "<table>"},
		{"strikethrough", "~~old~~\n", "<del>old</del>"},
		{"raw html", "<div class=\"note\">x</div>\n", `<div class="note">x</div>`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := r.Render(c.in)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(got), c.want) {
				t.Errorf("Render(%q) = %q, want substring %q", c.in, got, c.want)
			}
		})
	}
}

func TestRender_Concurrent(t *testing.T) {
	r := newRenderer()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if _, err := r.Render("[[Issue 17506]] and [[Missing]]\n"); err != nil {
				t.Error(err)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
