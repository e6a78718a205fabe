// Package vault discovers the publishable notes and project files of a vault.
package vault

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/parser"
	"github.com/starford/vaultsite/internal/slug"
	"github.com/starford/vaultsite/internal/storage"
)

// DefaultExclude lists the vault paths that are never published.
var DefaultExclude = []string{"Dashboard.md", ".obsidian/**", "templates/**"}

// ProjectsDir is the top-level folder holding project subtrees.
const ProjectsDir = "projects"

// Rules controls which vault files are published.
type Rules struct {
	// Exclude holds patterns matched against the slash-separated path
	// relative to the vault root. A trailing "/**" excludes a whole subtree;
	// anything else is a path.Match pattern.
	Exclude []string
}

// Excluded reports whether rel is filtered out by the rules. Paths with a
// hidden segment are always excluded.
func (r Rules) Excluded(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	for _, pat := range r.Exclude {
		if dir, ok := strings.CutSuffix(pat, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// ReservedRoots are top-level URL segments owned by the site itself. Notes
// whose identifier starts with one would be shadowed by those routes.
var ReservedRoots = []string{"raw", "api"}

// Skipped is a vault file left out of a collection.
type Skipped struct {
	Path   string
	Reason string
}

// Collection is the immutable content of one build.
type Collection struct {
	Entries      []models.Entry
	ProjectFiles []models.ProjectFile
	// Skipped lists files that could not be published under a usable,
	// unique identifier.
	Skipped []Skipped
}

// checkID reports why id cannot be published, or "" when it can.
func checkID(id string) string {
	segs := strings.Split(id, "/")
	for _, seg := range segs {
		if seg == "" {
			return "path has a segment with no characters usable in an identifier"
		}
	}
	if slices.Contains(ReservedRoots, segs[0]) {
		return fmt.Sprintf("identifier %s collides with the reserved /%s/ route", id, segs[0])
	}
	return ""
}

// Load reads every published note from store. Entries and project files are
// sorted by identifier so downstream ordering is reproducible.
func Load(store storage.Provider, rules Rules) (*Collection, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}

	coll := &Collection{}
	for _, m := range metas {
		if rules.Excluded(m.Path) {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}

		if project, file, ok := SplitProjectFile(m.Path); ok {
			pf := models.ProjectFile{
				Project:    slug.Slugify(project),
				File:       slug.EntryID(file),
				SourcePath: m.Path,
				Body:       string(data),
				Checksum:   m.Checksum,
				UpdatedAt:  m.UpdatedAt,
			}
			if reason := checkID(pf.ID()); reason != "" {
				coll.Skipped = append(coll.Skipped, Skipped{Path: m.Path, Reason: reason})
				continue
			}
			coll.ProjectFiles = append(coll.ProjectFiles, pf)
			continue
		}

		id := slug.EntryID(m.Path)
		if reason := checkID(id); reason != "" {
			coll.Skipped = append(coll.Skipped, Skipped{Path: m.Path, Reason: reason})
			continue
		}

		res, err := parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("vault: parse %s: %w", m.Path, err)
		}
		title := res.Title
		if title == "" {
			title = strings.TrimSuffix(path.Base(m.Path), ".md")
		}
		coll.Entries = append(coll.Entries, models.Entry{
			ID:          id,
			SourcePath:  m.Path,
			Title:       title,
			Body:        res.Body,
			Frontmatter: res.Frontmatter,
			Tags:        res.Tags,
			Links:       res.Links,
			Checksum:    m.Checksum,
			UpdatedAt:   m.UpdatedAt,
		})
	}

	sort.SliceStable(coll.Entries, func(i, j int) bool {
		return coll.Entries[i].ID < coll.Entries[j].ID
	})
	sort.SliceStable(coll.ProjectFiles, func(i, j int) bool {
		return coll.ProjectFiles[i].ID() < coll.ProjectFiles[j].ID()
	})
	coll.Entries = dedupe(coll.Entries, func(e models.Entry) (string, string) { return e.ID, e.SourcePath }, &coll.Skipped)
	coll.ProjectFiles = dedupe(coll.ProjectFiles, func(pf models.ProjectFile) (string, string) { return pf.ID(), pf.SourcePath }, &coll.Skipped)
	return coll, nil
}

// dedupe drops all but the last item of every run sharing an identifier.
// items must be stably sorted by identifier, so the survivor is the one with
// the greatest source path.
func dedupe[T any](items []T, key func(T) (id, path string), skipped *[]Skipped) []T {
	out := items[:0]
	for i := 0; i < len(items); {
		id, _ := key(items[i])
		j := i
		for j+1 < len(items) {
			if next, _ := key(items[j+1]); next != id {
				break
			}
			j++
		}
		_, kept := key(items[j])
		for _, dup := range items[i:j] {
			_, p := key(dup)
			*skipped = append(*skipped, Skipped{Path: p, Reason: fmt.Sprintf("duplicate id %s, kept %s", id, kept)})
		}
		out = append(out, items[j])
		i = j + 1
	}
	return out
}
