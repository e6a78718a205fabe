// Package noteservice answers read queries about the published vault from
// the current build snapshot and the recorded link graph.
package noteservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/checksum"
	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/wikilink"
)

// EntryDetail is the full representation of a published entry.
type EntryDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Type        string         `json:"type,omitempty"`
	SourcePath  string         `json:"source_path"`
	Href        string         `json:"href"`
	RawHref     string         `json:"raw_href"`
	Body        string         `json:"body"`
	Checksum    string         `json:"checksum"`
	ETag        string         `json:"-"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Outgoing    []models.Link  `json:"outgoing"`
	Related     []models.Link  `json:"related"`
	Backlinks   []models.Link  `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BuildInfo describes the snapshot currently served.
type BuildInfo struct {
	ID       string    `json:"id"`
	Base     string    `json:"base"`
	BuiltAt  time.Time `json:"built_at"`
	Entries  int       `json:"entries"`
	Projects int       `json:"project_files"`
}

// Service coordinates snapshot and index reads.
type Service struct {
	current *site.Current
	idx     index.GraphIndex
}

// NewService creates a new note service.
func NewService(current *site.Current, idx index.GraphIndex) *Service {
	return &Service{current: current, idx: idx}
}

func (s *Service) snapshot() (*site.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	return snap, nil
}

// Build returns the identity of the snapshot being served.
func (s *Service) Build(_ context.Context) (*BuildInfo, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return &BuildInfo{
		ID:       snap.ID,
		Base:     snap.Base,
		BuiltAt:  snap.BuiltAt,
		Entries:  len(snap.Collection.Entries),
		Projects: len(snap.Collection.ProjectFiles),
	}, nil
}

// ListEntries returns the recorded entries, optionally filtered by
// frontmatter type.
func (s *Service) ListEntries(_ context.Context, noteType string) ([]index.EntryRow, error) {
	rows, err := s.idx.ListEntries(noteType)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Tags = nonNilSlice(rows[i].Tags)
	}
	return nonNilSlice(rows), nil
}

// GetEntry returns an entry with its resolved links.
func (s *Service) GetEntry(_ context.Context, id string) (*EntryDetail, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	e, ok := snap.Entry(id)
	if !ok {
		return nil, fmt.Errorf("noteservice: entry %s: %w", id, apperr.ErrNotFound)
	}
	return &EntryDetail{
		ID:          e.ID,
		Title:       e.Title,
		Type:        e.Type(),
		SourcePath:  e.SourcePath,
		Href:        snap.Base + "/" + e.ID + "/",
		RawHref:     snap.Base + "/raw/" + e.ID + ".md",
		Body:        e.Body,
		Checksum:    e.Checksum,
		ETag:        checksum.ETag([]byte(e.Body)),
		Tags:        nonNilSlice(e.Tags),
		Frontmatter: e.Frontmatter,
		Outgoing:    nonNilSlice(snap.Outgoing(e.ID)),
		Related:     nonNilSlice(snap.Related(e.ID)),
		Backlinks:   nonNilSlice(snap.Backlinks(e.ID)),
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

// Raw returns the unmodified body published at raw/<id>.md.
func (s *Service) Raw(_ context.Context, id string) (string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return "", err
	}
	body, ok := snap.Raw(id)
	if !ok {
		return "", fmt.Errorf("noteservice: raw %s: %w", id, apperr.ErrNotFound)
	}
	return body, nil
}

// Resolve resolves a wiki-link token against the current snapshot. A
// dangling result is not an error.
func (s *Service) Resolve(_ context.Context, token string) (wikilink.Resolved, error) {
	snap, err := s.snapshot()
	if err != nil {
		return wikilink.Resolved{}, err
	}
	return snap.Resolve(token), nil
}

// Backlinks returns the recorded links that resolved to id.
func (s *Service) Backlinks(_ context.Context, id string) ([]models.Link, error) {
	bl, err := s.idx.Backlinks(id)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// Dangling returns the recorded links that resolved to no entry.
func (s *Service) Dangling(_ context.Context) ([]models.Link, error) {
	links, err := s.idx.Dangling()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(links), nil
}

// Publish records snap in the index and makes it the served snapshot. The
// previous snapshot stays in place when recording fails.
func (s *Service) Publish(snap *site.Snapshot, startedAt time.Time) error {
	if err := snap.Record(s.idx, startedAt); err != nil {
		return fmt.Errorf("noteservice: record build: %w", err)
	}
	s.current.Store(snap)
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
