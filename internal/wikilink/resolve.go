package wikilink

import (
	"strings"

	"github.com/starford/vaultsite/internal/slug"
)

// Resolved is the outcome of resolving one wiki-link. A dangling link has an
// empty Href and ID; Label always carries the text between the brackets.
type Resolved struct {
	Href  string `json:"href,omitempty"`
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

// Dangling reports whether no entry matched.
func (r Resolved) Dangling() bool {
	return r.Href == ""
}

// StripBrackets removes a leading "[[" and a trailing "]]" when present.
func StripBrackets(token string) string {
	token = strings.TrimPrefix(token, "[[")
	return strings.TrimSuffix(token, "]]")
}

// Resolve maps a wiki-link token to an entry destination under base.
//
// An exact basename match always wins. Otherwise the first basename (in map
// order) that has the slugified label as a prefix is used. When neither
// matches the result is dangling.
func Resolve(token string, links *LinkMap, base string) Resolved {
	label := StripBrackets(token)
	key := slug.Slugify(label)

	if id, ok := links.Lookup(key); ok {
		return Resolved{Href: href(base, id), ID: id, Label: label}
	}
	for basename, id := range links.All() {
		if strings.HasPrefix(basename, key) {
			return Resolved{Href: href(base, id), ID: id, Label: label}
		}
	}
	return Resolved{Label: label}
}

func href(base, id string) string {
	return base + "/" + id + "/"
}
