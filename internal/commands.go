package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/dashboard"
	"github.com/starford/vaultsite/internal/mcpserver"
	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/noteservice"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/slug"
)

// Build renders the vault into the output directory once and records the
// link graph in the index.
func Build(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	builder, _, err := app.builder(false)
	if err != nil {
		return err
	}
	db, err := app.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	started := time.Now()
	snap, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	if err := snap.Record(db, started); err != nil {
		return fmt.Errorf("record build: %w", err)
	}

	dangling := len(snap.Dangling())
	fmt.Fprintf(app.out, "built %d entries and %d project files into %s (%d dangling links)\n",
		len(snap.Collection.Entries), len(snap.Collection.ProjectFiles), app.config.Site.OutputDir, dangling)
	return nil
}

// Validate checks the frontmatter of every note in the vault and prints a
// report. It fails when any note has errors; warnings alone pass.
func Validate(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	validator, err := app.validator()
	if err != nil {
		return err
	}
	report, err := validator.ValidateDirectory(app.config.Vault.Path)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := report.Write(app.out); err != nil {
		return err
	}
	if n := report.TotalErrors(); n > 0 {
		return fmt.Errorf("validate: %d errors: %w", n, apperr.ErrFrontmatter)
	}
	return nil
}

// Dashboard regenerates the dashboard note. With check set it only compares
// and fails with apperr.ErrStale when the note differs.
func Dashboard(_ context.Context, check bool, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	cfg := app.config
	sections, err := dashboard.LoadSections(cfg.Dashboard.SectionsPath)
	if err != nil {
		return err
	}
	store, err := app.store()
	if err != nil {
		return err
	}

	if check {
		ok, err := dashboard.Check(sections, store, cfg.Dashboard.Output)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("dashboard: %s: %w", cfg.Dashboard.Output, apperr.ErrStale)
		}
		fmt.Fprintf(app.out, "%s is up to date\n", cfg.Dashboard.Output)
		return nil
	}

	if err := dashboard.Write(sections, store, cfg.Dashboard.Output); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "wrote %s (%d sections)\n", cfg.Dashboard.Output, len(sections))
	return nil
}

// Links prints link graph facts from the last recorded build: dangling
// links, or the backlinks of one entry.
func Links(_ context.Context, dangling bool, backlinksOf string, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	db, err := app.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	last, err := db.LastBuild()
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("links: no build recorded in %s, run build first: %w", app.config.SQLite.Path, apperr.ErrNotReady)
	}
	if err != nil {
		return err
	}
	app.logger.Debug("links: reading build", slog.String("build_id", last.ID), slog.Time("finished_at", last.FinishedAt))

	var links []models.Link
	switch {
	case backlinksOf != "":
		links, err = db.Backlinks(slug.EntryID(backlinksOf))
	case dangling:
		links, err = db.Dangling()
	default:
		return errors.New("links: pass --dangling or --backlinks")
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	for _, l := range links {
		fmt.Fprintf(tw, "%s\t[[%s]]\t%s\n", l.Source, l.Label, l.Origin)
	}
	return tw.Flush()
}

// ServeMCP loads the vault into memory and serves the MCP tools on
// stdin/stdout. The snapshot is refreshed as the vault changes. Logs go to
// stderr since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}
	builder, validator, err := app.builder(false)
	if err != nil {
		return err
	}
	db, err := app.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := noteservice.NewService(&site.Current{}, db)
	reload := func(context.Context) {
		started := time.Now()
		snap, err := builder.Load()
		if err == nil {
			err = svc.Publish(snap, started)
		}
		if err != nil {
			app.logger.Error("mcp: load failed", slog.String("error", err.Error()))
		}
	}
	reload(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := site.Watch(ctx, app.config.Vault.Path, app.logger, reload); err != nil {
			app.logger.Error("mcp: watcher stopped", slog.String("error", err.Error()))
		}
	}()

	return mcpserver.New(svc, validator, app.version).ServeStdio()
}
