// Package models defines the domain types for vaultsite.
package models

import (
	"fmt"
	"time"

	"github.com/starford/vaultsite/internal/slug"
)

// Entry is one published document derived from a vault note.
// Entries are immutable for the duration of a build.
type Entry struct {
	ID          string         `json:"id"`
	SourcePath  string         `json:"source_path"`
	Title       string         `json:"title"`
	Body        string         `json:"-"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Basename returns the last segment of the entry identifier.
func (e Entry) Basename() string {
	return slug.Basename(e.ID)
}

// Type returns the frontmatter "type" field, or "" when unset.
func (e Entry) Type() string {
	return e.String("type")
}

// String returns a frontmatter field rendered as a string.
func (e Entry) String(key string) string {
	v, ok := e.Frontmatter[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return fmt.Sprint(t)
	}
}

// Strings returns a frontmatter field as a list of strings. A scalar string
// yields a one-element list.
func (e Entry) Strings(key string) []string {
	switch v := e.Frontmatter[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ProjectFile is a supporting file of a project folder
// (projects/<project>/<file>.md other than index.md).
type ProjectFile struct {
	Project    string    `json:"project"`
	File       string    `json:"file"`
	SourcePath string    `json:"source_path"`
	Body       string    `json:"-"`
	Checksum   string    `json:"checksum"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ID returns the composite identifier projects/<project>/<file>.
func (p ProjectFile) ID() string {
	return "projects/" + p.Project + "/" + p.File
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link is a resolved (or dangling) wiki-link edge between two entries.
type Link struct {
	Source string `json:"source"`
	Label  string `json:"label"`
	Target string `json:"target,omitempty"`
	Href   string `json:"href,omitempty"`
	Origin string `json:"origin"` // "inline" or "frontmatter"
}

// Dangling reports whether the link did not resolve to any entry.
func (l Link) Dangling() bool {
	return l.Target == ""
}
