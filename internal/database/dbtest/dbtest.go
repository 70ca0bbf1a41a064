// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/Negixaab/runningbuddy/internal/database"
)

// Open returns an in-memory SQLite database with all migrations applied.
// The database is closed when the test finishes.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
