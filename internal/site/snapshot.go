// Package site builds the static site from a vault and holds the immutable
// per-build snapshot every server surface reads from.
package site

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/schema"
	"github.com/starford/vaultsite/internal/vault"
	"github.com/starford/vaultsite/internal/wikilink"
)

// Link origins.
const (
	OriginInline      = "inline"
	OriginFrontmatter = "frontmatter"
)

// Snapshot is the immutable result of one build. It is never mutated after
// NewSnapshot returns; a rebuild produces a new Snapshot.
type Snapshot struct {
	ID         string
	Base       string
	BuiltAt    time.Time
	Collection *vault.Collection
	Links      *wikilink.LinkMap

	outgoing  map[string][]models.Link
	related   map[string][]models.Link
	backlinks map[string][]models.Link
	all       []models.Link
}

// NewSnapshot resolves every wiki-link of coll against a fresh link map.
func NewSnapshot(coll *vault.Collection, base string) *Snapshot {
	s := &Snapshot{
		ID:         uuid.NewString(),
		Base:       base,
		BuiltAt:    time.Now().UTC(),
		Collection: coll,
		Links:      wikilink.BuildLinkMap(coll.Entries),
		outgoing:   make(map[string][]models.Link),
		related:    make(map[string][]models.Link),
		backlinks:  make(map[string][]models.Link),
	}

	for _, e := range coll.Entries {
		for _, tok := range e.Links {
			l := s.link(e.ID, tok, OriginInline)
			s.outgoing[e.ID] = append(s.outgoing[e.ID], l)
			s.all = append(s.all, l)
		}
		seen := make(map[string]struct{})
		for _, field := range schema.WikiLinkFields() {
			for _, tok := range e.Strings(field) {
				target, _, _ := strings.Cut(wikilink.StripBrackets(tok), "|")
				target = strings.TrimSpace(target)
				if target == "" {
					continue
				}
				if _, dup := seen[target]; dup {
					continue
				}
				seen[target] = struct{}{}
				l := s.link(e.ID, target, OriginFrontmatter)
				s.related[e.ID] = append(s.related[e.ID], l)
				s.all = append(s.all, l)
			}
		}
	}

	for _, l := range s.all {
		if !l.Dangling() {
			s.backlinks[l.Target] = append(s.backlinks[l.Target], l)
		}
	}
	for id := range s.backlinks {
		bl := s.backlinks[id]
		sort.SliceStable(bl, func(i, j int) bool { return bl[i].Source < bl[j].Source })
	}
	return s
}

func (s *Snapshot) link(source, token, origin string) models.Link {
	r := wikilink.Resolve(token, s.Links, s.Base)
	return models.Link{
		Source: source,
		Label:  r.Label,
		Target: r.ID,
		Href:   r.Href,
		Origin: origin,
	}
}

// Resolve resolves a single wiki-link token against the snapshot.
func (s *Snapshot) Resolve(token string) wikilink.Resolved {
	return wikilink.Resolve(token, s.Links, s.Base)
}

// Entry returns the entry with the given identifier.
func (s *Snapshot) Entry(id string) (models.Entry, bool) {
	return s.Collection.Entry(id)
}

// Raw returns the unmodified body published at raw/<id>.md. Entries take
// precedence over project files.
func (s *Snapshot) Raw(id string) (string, bool) {
	if e, ok := s.Collection.Entry(id); ok {
		return e.Body, true
	}
	if pf, ok := s.Collection.ProjectFile(id); ok {
		return pf.Body, true
	}
	return "", false
}

// Outgoing returns the body wiki-links of id in document order.
func (s *Snapshot) Outgoing(id string) []models.Link { return s.outgoing[id] }

// Related returns the wiki-links declared in id's frontmatter.
func (s *Snapshot) Related(id string) []models.Link { return s.related[id] }

// Backlinks returns the links from other entries that resolved to id.
func (s *Snapshot) Backlinks(id string) []models.Link { return s.backlinks[id] }

// LinkedFrom returns one backlink per distinct source of id, in source order.
func (s *Snapshot) LinkedFrom(id string) []models.Link {
	bl := s.backlinks[id]
	out := make([]models.Link, 0, len(bl))
	for _, l := range bl {
		if n := len(out); n > 0 && out[n-1].Source == l.Source {
			continue
		}
		out = append(out, l)
	}
	return out
}

// AllLinks returns every resolved and dangling link of the build.
func (s *Snapshot) AllLinks() []models.Link { return s.all }

// Dangling returns the links that resolved to no entry.
func (s *Snapshot) Dangling() []models.Link {
	var out []models.Link
	for _, l := range s.all {
		if l.Dangling() {
			out = append(out, l)
		}
	}
	return out
}

// Record stores the snapshot's graph in idx, replacing the previous build.
func (s *Snapshot) Record(idx index.GraphIndex, startedAt time.Time) error {
	row := index.BuildRow{
		ID:         s.ID,
		Base:       s.Base,
		Entries:    len(s.Collection.Entries),
		Links:      len(s.all),
		Dangling:   len(s.Dangling()),
		StartedAt:  startedAt,
		FinishedAt: s.BuiltAt,
	}
	return idx.Record(row, s.Collection.Entries, s.all)
}
