// Package slug turns note titles and wiki-link labels into canonical URL segments.
package slug

import (
	"path/filepath"
	"regexp"
	"strings"
)

// space matches what JavaScript's \s does: RE2's ASCII \s plus \v, the
// Unicode space separators, BOM and the line/paragraph separators.
const space = `[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`

var (
	separatorRe  = regexp.MustCompile(space + `+-` + space + `+`)
	whitespaceRe = regexp.MustCompile(space + `+`)
	invalidRe    = regexp.MustCompile(`[^a-z0-9\-]`)
	hyphensRe    = regexp.MustCompile(`-+`)
)

// Slugify lowercases s, folds "A - B" title separators and whitespace runs into
// single hyphens, drops every character outside [a-z0-9-] and collapses
// repeated hyphens. The result may be empty.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = separatorRe.ReplaceAllString(s, "-")
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = invalidRe.ReplaceAllString(s, "")
	return hyphensRe.ReplaceAllString(s, "-")
}

// EntryID derives the hierarchical identifier of a vault file from its path
// relative to the vault root: the .md extension is dropped and every segment
// is slugified.
func EntryID(relPath string) string {
	p := strings.TrimSuffix(filepath.ToSlash(relPath), ".md")
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = Slugify(s)
	}
	return strings.Join(segs, "/")
}

// Basename returns the last slash-delimited segment of id.
func Basename(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}
