package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
)

// BuildRow represents a row in the builds table.
type BuildRow struct {
	ID         string    `json:"id"`
	Base       string    `json:"base"`
	Entries    int       `json:"entries"`
	Links      int       `json:"links"`
	Dangling   int       `json:"dangling"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// EntryRow represents a row in the entries table.
type EntryRow struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type,omitempty"`
	SourcePath string    `json:"source_path"`
	Checksum   string    `json:"checksum"`
	Tags       []string  `json:"tags"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record stores a finished build and replaces the entry and link tables
// with its graph, all within one transaction.
func (db *DB) Record(b BuildRow, entries []models.Entry, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM links`); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("index: clear entries: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO builds (id, base, entries, links, dangling, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Base, b.Entries, b.Links, b.Dangling, b.StartedAt.UTC(), b.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: insert build: %w", err)
	}

	entryStmt, err := tx.Prepare(`
		INSERT INTO entries (id, title, type, source_path, checksum, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare entry insert: %w", err)
	}
	defer entryStmt.Close()
	for _, e := range entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, _ := json.Marshal(tags)
		if _, err := entryStmt.Exec(e.ID, e.Title, e.Type(), e.SourcePath, e.Checksum, string(tagsJSON), e.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("index: insert entry %s: %w", e.ID, err)
		}
	}

	linkStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO links (source, label, target, href, origin)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer linkStmt.Close()
	for _, l := range links {
		if _, err := linkStmt.Exec(l.Source, l.Label, l.Target, l.Href, l.Origin); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}

	return tx.Commit()
}

// ListEntries returns the entries of the last recorded build ordered by ID.
// An empty noteType lists every entry.
func (db *DB) ListEntries(noteType string) ([]EntryRow, error) {
	q := `SELECT id, title, type, source_path, checksum, tags, updated_at FROM entries`
	var args []any
	if noteType != "" {
		q += ` WHERE type = ?`
		args = append(args, noteType)
	}
	q += ` ORDER BY id`

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list entries: %w", err)
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		var tagsJSON string
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.SourcePath, &r.Checksum, &tagsJSON, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("index: scan entry: %w", err)
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Backlinks returns every link that resolved to target, ordered by source.
func (db *DB) Backlinks(target string) ([]models.Link, error) {
	return db.queryLinks(`WHERE target = ? ORDER BY source, label`, target)
}

// Dangling returns every link that resolved to no entry.
func (db *DB) Dangling() ([]models.Link, error) {
	return db.queryLinks(`WHERE target = '' ORDER BY source, label`)
}

func (db *DB) queryLinks(where string, args ...any) ([]models.Link, error) {
	rows, err := db.conn.Query(`SELECT source, label, target, href, origin FROM links `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Label, &l.Target, &l.Href, &l.Origin); err != nil {
			return nil, fmt.Errorf("index: scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LastBuild returns the most recently finished build, or apperr.ErrNotFound
// when nothing has been recorded.
func (db *DB) LastBuild() (*BuildRow, error) {
	var b BuildRow
	err := db.conn.QueryRow(`
		SELECT id, base, entries, links, dangling, started_at, finished_at
		FROM builds ORDER BY finished_at DESC, rowid DESC LIMIT 1
	`).Scan(&b.ID, &b.Base, &b.Entries, &b.Links, &b.Dangling, &b.StartedAt, &b.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: last build: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: last build: %w", err)
	}
	return &b, nil
}
