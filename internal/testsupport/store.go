package testsupport

import (
	"testing"

	"rexpaces/internal/artifacts"
)

// MustOpenStore opens an artifacts.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, dir string) *artifacts.Store {
	t.Helper()

	if dir == "" {
		dir = t.TempDir()
	}
	store, err := artifacts.Open(dir)
	if err != nil {
		t.Fatalf("artifacts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSave writes an artifact or fails the test.
func MustSave(t testing.TB, store *artifacts.Store, name string, v any) {
	t.Helper()

	if err := store.Save(name, v); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}
