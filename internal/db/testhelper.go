package db

import (
	"path/filepath"
	"testing"
)

// OpenTestStore opens a hardened SQLite store in t.TempDir(), runs all
// pending migrations on the write pool, and registers cleanup.
//
// Tests that don't need the read/write split can use Write for everything.
func OpenTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")

	store, err := Open(path, 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := RunMigrations(store.Write); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return store
}
