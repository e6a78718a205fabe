// Package wikilink resolves [[wiki-link]] tokens against the entries of a build.
package wikilink

import (
	"iter"

	"github.com/starford/vaultsite/internal/models"
)

// LinkMap maps an entry basename to its full identifier. Iteration follows
// insertion order; overwriting a basename keeps its original position.
type LinkMap struct {
	order []string
	ids   map[string]string
}

// BuildLinkMap records basename → ID for every entry in input order. When two
// entries share a basename the later one wins.
func BuildLinkMap(entries []models.Entry) *LinkMap {
	m := &LinkMap{
		order: make([]string, 0, len(entries)),
		ids:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		base := e.Basename()
		if _, ok := m.ids[base]; !ok {
			m.order = append(m.order, base)
		}
		m.ids[base] = e.ID
	}
	return m
}

// Lookup returns the identifier recorded for basename.
func (m *LinkMap) Lookup(basename string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.ids[basename]
	return id, ok
}

// Len returns the number of distinct basenames.
func (m *LinkMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// All yields basename/identifier pairs in insertion order.
func (m *LinkMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, base := range m.order {
			if !yield(base, m.ids[base]) {
				return
			}
		}
	}
}
