package schema

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/starford/vaultsite/internal/models"
	"github.com/starford/vaultsite/internal/parser"
	"github.com/starford/vaultsite/internal/vault"
)

var (
	skipDirs  = map[string]struct{}{"templates": {}}
	skipFiles = map[string]struct{}{"Dashboard.md": {}}
)

// ValidateFile validates the frontmatter of the Markdown file at path.
func (v *Validator) ValidateFile(path string) (errs, warnings []string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("failed to read: %v", err)}, nil
	}
	fm, _, err := parser.Frontmatter(data)
	if errors.Is(err, frontmatter.ErrNotFound) {
		return []string{"no frontmatter found"}, nil
	}
	if err != nil {
		return []string{fmt.Sprintf("failed to parse frontmatter: %v", err)}, nil
	}
	return v.ValidateData(fm)
}

// ValidateEntry validates the frontmatter already parsed into e.
func (v *Validator) ValidateEntry(e models.Entry) (errs, warnings []string) {
	if e.Frontmatter == nil {
		return []string{"no frontmatter found"}, nil
	}
	return v.ValidateData(e.Frontmatter)
}

// FindMarkdownFiles returns the sorted paths of every validatable .md file
// under dir. Hidden directories, templates/, Dashboard.md and project
// supporting files are skipped.
func FindMarkdownFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, part := range strings.Split(rel, "/") {
			if strings.HasPrefix(part, ".") {
				return nil
			}
			if _, skip := skipDirs[part]; skip {
				return nil
			}
		}
		if _, skip := skipFiles[d.Name()]; skip {
			return nil
		}
		if _, _, ok := vault.SplitProjectFile(rel); ok {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema: walk %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// FileReport holds the findings for one file.
type FileReport struct {
	Path     string
	Errors   []string
	Warnings []string
}

// Report summarises a directory validation run.
type Report struct {
	Checked int
	Files   []FileReport // only files with findings
}

// TotalErrors returns the number of errors across all files.
func (r *Report) TotalErrors() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Errors)
	}
	return n
}

// TotalWarnings returns the number of warnings across all files.
func (r *Report) TotalWarnings() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Warnings)
	}
	return n
}

// Write prints the report in the layout of the validate command.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&b, "\n%s:\n", f.Path)
		for _, e := range f.Errors {
			fmt.Fprintf(&b, "  ERROR  %s\n", e)
		}
		for _, wn := range f.Warnings {
			fmt.Fprintf(&b, "  WARN   %s\n", wn)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(&b, "Files: %d  Errors: %d  Warnings: %d\n", r.Checked, r.TotalErrors(), r.TotalWarnings())
	_, err := io.WriteString(w, b.String())
	return err
}

// ValidateDirectory validates every file FindMarkdownFiles returns for dir.
func (v *Validator) ValidateDirectory(dir string) (*Report, error) {
	files, err := FindMarkdownFiles(dir)
	if err != nil {
		return nil, err
	}
	r := &Report{Checked: len(files)}
	for _, p := range files {
		errs, warns := v.ValidateFile(p)
		if len(errs) == 0 && len(warns) == 0 {
			continue
		}
		r.Files = append(r.Files, FileReport{Path: p, Errors: errs, Warnings: warns})
	}
	return r, nil
}
