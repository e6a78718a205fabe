// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vaultsite/internal/index"
	"github.com/starford/vaultsite/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "vaultsite-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory populated with files
// (relative path → content) and returns it with a storage.Provider.
func TestVault(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	WriteFiles(t, vaultDir, files)
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteFiles writes each relative path → content pair under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// Note returns a note with minimal valid frontmatter followed by body.
func Note(noteType, tag, body string) string {
	return "---\n" +
		"type: " + noteType + "\n" +
		"tags:\n  - " + tag + "\n" +
		"status: draft\n" +
		"created: 2025-01-15\n" +
		"revised: 2025-01-15\n" +
		"revision: 1\n" +
		"ai_generated: true\n" +
		"---\n" + body
}
