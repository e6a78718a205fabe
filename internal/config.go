package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/vaultsite/internal/dashboard"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	Site      SiteConfig        `yaml:"site"`
	Schema    SchemaConfig      `yaml:"schema"`
	Dashboard DashboardConfig   `yaml:"dashboard"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Dashboard.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if within(c.Site.OutputDir, c.Vault.Path) {
		return fmt.Errorf("site: output_dir %q must not be inside the vault %q", c.Site.OutputDir, c.Vault.Path)
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	p, err1 := filepath.Abs(path)
	d, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig locates the Markdown vault and lists extra paths to leave
// unpublished.
type VaultConfig struct {
	Path    string   `yaml:"path"`
	Exclude []string `yaml:"exclude"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Exclude, validation.Each(validation.Required)),
	)
}

var basePathRe = regexp.MustCompile(`^(/[A-Za-z0-9._~-]+)*$`)

// SiteConfig controls the static site build.
type SiteConfig struct {
	Title               string `yaml:"title"`
	URL                 string `yaml:"url"`
	Base                string `yaml:"base"`
	OutputDir           string `yaml:"output_dir"`
	LayoutsDir          string `yaml:"layouts_dir"`
	ValidateFrontmatter bool   `yaml:"validate_frontmatter"`
	Workers             int    `yaml:"workers"`
}

// Validate validates the site configuration. A trailing slash on Base is
// dropped first.
func (c *SiteConfig) Validate() error {
	if c.Base != "/" {
		c.Base = strings.TrimSuffix(c.Base, "/")
	} else {
		c.Base = ""
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.URL, is.URL),
		validation.Field(&c.Base, validation.Match(basePathRe).Error("must be empty or a path like /galaxy-brain")),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// SchemaConfig points at the frontmatter schema and tag files. Empty paths
// select the built-in defaults.
type SchemaConfig struct {
	SchemaPath string `yaml:"schema_path"`
	TagsPath   string `yaml:"tags_path"`
}

// DashboardConfig controls Dashboard.md generation.
type DashboardConfig struct {
	SectionsPath string `yaml:"sections_path"`
	Output       string `yaml:"output"`
}

// Validate validates the dashboard configuration.
func (c *DashboardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.Required, validation.Match(regexp.MustCompile(`\.md$`))),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the preview API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 4321,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Site: SiteConfig{
			Title:               "Vault",
			OutputDir:           "./dist",
			ValidateFrontmatter: true,
			Workers:             8,
		},
		Dashboard: DashboardConfig{
			Output: dashboard.DefaultOutput,
		},
		SQLite: SQLiteConfig{
			Path: "./vaultsite.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
