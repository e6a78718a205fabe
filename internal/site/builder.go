package site

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/render"
	"github.com/starford/vaultsite/internal/schema"
	"github.com/starford/vaultsite/internal/storage"
	"github.com/starford/vaultsite/internal/vault"
)

//go:embed layouts/*.html
var defaultLayouts embed.FS

// Options configures a Builder.
type Options struct {
	Title      string
	URL        string
	Base       string
	OutputDir  string
	LayoutsDir string
	Exclude    []string
	Workers    int
	// LiveReload adds the event-stream reload script to every page.
	LiveReload bool
}

// Builder renders a vault into OutputDir.
type Builder struct {
	store     storage.Provider
	validator *schema.Validator
	opts      Options
	tmpl      *template.Template
	logger    *slog.Logger
}

// NewBuilder parses the page layouts. A nil validator skips frontmatter
// validation.
func NewBuilder(store storage.Provider, validator *schema.Validator, opts Options, logger *slog.Logger) (*Builder, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	opts.Base = strings.TrimSuffix(opts.Base, "/")

	funcs := template.FuncMap{
		"entryHref": func(id string) string { return opts.Base + "/" + id + "/" },
	}
	tmpl, err := template.New("site").Funcs(funcs).ParseFS(defaultLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse layouts: %w", err)
	}
	if opts.LayoutsDir != "" {
		tmpl, err = tmpl.ParseGlob(filepath.Join(opts.LayoutsDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", opts.LayoutsDir, err)
		}
	}
	return &Builder{store: store, validator: validator, opts: opts, tmpl: tmpl, logger: logger}, nil
}

// Base returns the normalised site base path.
func (b *Builder) Base() string { return b.opts.Base }

// Load reads the vault and resolves its links without writing anything.
func (b *Builder) Load() (*Snapshot, error) {
	coll, err := vault.Load(b.store, vault.Rules{Exclude: append(append([]string{}, vault.DefaultExclude...), b.opts.Exclude...)})
	if err != nil {
		return nil, err
	}
	for _, sk := range coll.Skipped {
		b.logger.Warn("vault: note not published", slog.String("path", sk.Path), slog.String("reason", sk.Reason))
	}
	if err := b.validate(coll); err != nil {
		return nil, err
	}
	return NewSnapshot(coll, b.opts.Base), nil
}

func (b *Builder) validate(coll *vault.Collection) error {
	if b.validator == nil {
		return nil
	}
	invalid := 0
	for _, e := range coll.Entries {
		errs, warns := b.validator.ValidateEntry(e)
		for _, w := range warns {
			b.logger.Warn("build: frontmatter warning", slog.String("path", e.SourcePath), slog.String("warning", w))
		}
		if len(errs) == 0 {
			continue
		}
		invalid++
		for _, msg := range errs {
			b.logger.Error("build: invalid frontmatter", slog.String("path", e.SourcePath), slog.String("error", msg))
		}
	}
	if invalid > 0 {
		return fmt.Errorf("site: %d notes failed validation: %w", invalid, apperr.ErrFrontmatter)
	}
	return nil
}

// Build loads the vault and writes the whole site. Output is assembled in a
// sibling staging directory and swapped in once every page is written.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := b.Load()
	if err != nil {
		return nil, err
	}

	out := filepath.Clean(b.opts.OutputDir)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("site: mkdir: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(out), "."+filepath.Base(out)+"-*")
	if err != nil {
		return nil, fmt.Errorf("site: staging dir: %w", err)
	}
	defer os.RemoveAll(staging) //nolint:errcheck // gone after a successful swap

	if err := b.write(ctx, snap, staging); err != nil {
		return nil, err
	}
	if err := swapDir(staging, out); err != nil {
		return nil, err
	}

	for _, l := range snap.Dangling() {
		b.logger.Debug("build: dangling link", slog.String("source", l.Source), slog.String("label", l.Label))
	}
	b.logger.Info("build: done",
		slog.String("build_id", snap.ID),
		slog.Int("entries", len(snap.Collection.Entries)),
		slog.Int("project_files", len(snap.Collection.ProjectFiles)),
		slog.Int("dangling", len(snap.Dangling())),
		slog.Duration("took", time.Since(start)),
	)
	return snap, nil
}

func swapDir(staging, out string) error {
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("site: remove old output: %w", err)
	}
	if err := os.Rename(staging, out); err != nil {
		return fmt.Errorf("site: swap output: %w", err)
	}
	return nil
}

type siteData struct {
	Title string
	URL   string
	Base  string
}

type pageData struct {
	Site       siteData
	BuildID    string
	LiveReload bool
	Entry      models.Entry
	Content    template.HTML
	Status     string
	Revised    string
	RawHref    string
	Related    []models.Link
	Backlinks  []models.Link
}

// IndexSection is one heading of the index page.
type IndexSection struct {
	Heading string
	Entries []models.Entry
}

type indexData struct {
	Site       siteData
	BuildID    string
	LiveReload bool
	Sections   []IndexSection
}

func (b *Builder) write(ctx context.Context, snap *Snapshot, dir string) error {
	rdr := render.New(snap.Links, b.opts.Base)
	sd := siteData{Title: b.opts.Title, URL: b.opts.URL, Base: b.opts.Base}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	g.Go(func() error {
		return b.execute(filepath.Join(dir, "index.html"), "index.html", indexData{
			Site:       sd,
			BuildID:    snap.ID,
			LiveReload: b.opts.LiveReload,
			Sections:   Sections(snap.Collection.Entries),
		})
	})

	for _, e := range snap.Collection.Entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := rdr.Render(e.Body)
			if err != nil {
				return fmt.Errorf("site: render %s: %w", e.SourcePath, err)
			}
			page := pageData{
				Site:       sd,
				BuildID:    snap.ID,
				LiveReload: b.opts.LiveReload,
				Entry:      e,
				Content:    content,
				Status:     e.String("status"),
				Revised:    e.String("revised"),
				RawHref:    b.opts.Base + "/raw/" + e.ID + ".md",
				Related:    snap.Related(e.ID),
				Backlinks:  snap.LinkedFrom(e.ID),
			}
			if err := b.execute(filepath.Join(dir, filepath.FromSlash(e.ID), "index.html"), "page.html", page); err != nil {
				return err
			}
			return writeRaw(dir, e.ID, e.Body)
		})
	}

	for _, pf := range snap.Collection.ProjectFiles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeRaw(dir, pf.ID(), pf.Body)
		})
	}

	return g.Wait()
}

func (b *Builder) execute(path, name string, data any) error {
	var sb strings.Builder
	if err := b.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return fmt.Errorf("site: execute %s: %w", name, err)
	}
	return storage.WriteFileAtomic(path, []byte(sb.String()))
}

func writeRaw(dir, id, body string) error {
	return storage.WriteFileAtomic(filepath.Join(dir, "raw", filepath.FromSlash(id)+".md"), []byte(body))
}

// Sections groups entries by frontmatter type for the index page. Typed
// sections come first in name order, untyped entries last under "Notes".
// Entries keep their incoming order within a section.
func Sections(entries []models.Entry) []IndexSection {
	groups := make(map[string][]models.Entry)
	for _, e := range entries {
		groups[e.Type()] = append(groups[e.Type()], e)
	}
	types := make([]string, 0, len(groups))
	for t := range groups {
		if t != "" {
			types = append(types, t)
		}
	}
	sort.Strings(types)

	caser := cases.Title(language.English)
	out := make([]IndexSection, 0, len(groups))
	for _, t := range types {
		out = append(out, IndexSection{
			Heading: caser.String(strings.ReplaceAll(t, "-", " ")),
			Entries: groups[t],
		})
	}
	if untyped, ok := groups[""]; ok {
		out = append(out, IndexSection{Heading: "Notes", Entries: untyped})
	}
	return out
}
