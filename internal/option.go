package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/schema"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	out     io.Writer
	version string
	logger  *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithOutput sets where command reports are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// newApplication applies opts and installs a JSON logger writing to logTo.
func newApplication(opts []Option, logTo io.Writer) (*application, error) {
	app := &application{out: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errors.New("config is required")
	}

	app.logger = slog.New(slog.NewJSONHandler(logTo, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

func (a *application) store() (*storage.FS, error) {
	store, err := storage.NewFS(a.config.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	return store, nil
}

func (a *application) validator() (*schema.Validator, error) {
	v, err := schema.Load(a.config.Schema.SchemaPath, a.config.Schema.TagsPath)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return v, nil
}

// builder wires a site builder. Frontmatter validation is skipped when the
// site config turns it off.
func (a *application) builder(liveReload bool) (*site.Builder, *schema.Validator, error) {
	cfg := a.config
	store, err := a.store()
	if err != nil {
		return nil, nil, err
	}
	validator, err := a.validator()
	if err != nil {
		return nil, nil, err
	}
	buildValidator := validator
	if !cfg.Site.ValidateFrontmatter {
		buildValidator = nil
	}

	exclude := append([]string{}, cfg.Vault.Exclude...)
	exclude = append(exclude, cfg.Dashboard.Output)

	b, err := site.NewBuilder(store, buildValidator, site.Options{
		Title:      cfg.Site.Title,
		URL:        cfg.Site.URL,
		Base:       cfg.Site.Base,
		OutputDir:  cfg.Site.OutputDir,
		LayoutsDir: cfg.Site.LayoutsDir,
		Exclude:    exclude,
		Workers:    cfg.Site.Workers,
		LiveReload: liveReload,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return b, validator, nil
}

func (a *application) openIndex() (*index.DB, error) {
	db, err := index.Open(a.config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	return db, nil
}
