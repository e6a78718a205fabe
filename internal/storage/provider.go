// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultsite/internal/models"

// Provider is the interface for vault file operations. Paths are relative to
// the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir, sorted by path.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Root returns the absolute vault directory.
	Root() string
}
