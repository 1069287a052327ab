package repository

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/StuttgartNerd/vocabularyquest/internal/database"
)

// newTestStore opens a fresh SQLite store and returns the shared lock the
// repositories under test must use.
func newTestStore(t *testing.T) (*database.DB, *sync.Mutex) {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	return db, &sync.Mutex{}
}
