// Package dashboard generates the vault's Dashboard.md note from a list of
// tag sections.
package dashboard

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/storage"
)

// DefaultOutput is the vault-relative path of the generated note.
const DefaultOutput = "Dashboard.md"

//go:embed sections.yml
var defaultSections []byte

// Section is one dataview table on the dashboard.
type Section struct {
	Label string `yaml:"label" json:"label"`
	Tag   string `yaml:"tag" json:"tag"`
}

// LoadSections reads a section list from path. The file may be YAML or
// JSON. An empty path selects the built-in sections.
func LoadSections(path string) ([]Section, error) {
	data := defaultSections
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("dashboard: read sections: %w", err)
		}
	}
	return ParseSections(data)
}

// ParseSections decodes a section list.
func ParseSections(data []byte) ([]Section, error) {
	var sections []Section
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("dashboard: parse sections: %w", err)
	}
	for i, s := range sections {
		if s.Label == "" || s.Tag == "" {
			return nil, fmt.Errorf("dashboard: section %d: label and tag are required", i)
		}
	}
	return sections, nil
}

// Generate renders the dashboard note.
func Generate(sections []Section) string {
	blocks := make([]string, len(sections))
	for i, s := range sections {
		blocks[i] = "## " + s.Label + "\n" +
			"```dataview\n" +
			"\n" +
			"TABLE status, revised, revision\n" +
			"\n" +
			"FROM #" + s.Tag + "\n" +
			"\n" +
			"WHERE status != \"archived\"\n" +
			"\n" +
			"SORT revised DESC\n" +
			"\n" +
			"```"
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// Check reports whether the note at name matches what Generate produces.
// A missing note is out of date.
func Check(sections []Section, store storage.Provider, name string) (bool, error) {
	actual, err := store.Read(name)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dashboard: check: %w", err)
	}
	return string(actual) == Generate(sections), nil
}

// Write regenerates the note at name.
func Write(sections []Section, store storage.Provider, name string) error {
	if err := store.Write(name, []byte(Generate(sections))); err != nil {
		return fmt.Errorf("dashboard: write: %w", err)
	}
	return nil
}
