// Package apperr holds the sentinel errors shared across vaultsite packages.
package apperr

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
	// ErrFrontmatter marks a build aborted by schema-invalid frontmatter.
	ErrFrontmatter = errors.New("invalid frontmatter")
	// ErrNotReady is returned by read paths before the first build finishes.
	ErrNotReady = errors.New("no build available")
	// ErrStale marks a generated file that no longer matches its source.
	ErrStale = errors.New("out of date")
)
