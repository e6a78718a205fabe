package index

import "github.com/starford/vaultsite/internal/models"

// GraphIndex defines the build-graph queries. Consumers should depend on
// this interface rather than the concrete *DB type.
type GraphIndex interface {
	Record(b BuildRow, entries []models.Entry, links []models.Link) error
	ListEntries(noteType string) ([]EntryRow, error)
	Backlinks(target string) ([]models.Link, error)
	Dangling() ([]models.Link, error)
	LastBuild() (*BuildRow, error)
	Close() error
}

// Verify *DB satisfies GraphIndex at compile time.
var _ GraphIndex = (*DB)(nil)
