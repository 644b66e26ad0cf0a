package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/teamdir/internal/roster"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seededStore creates a store holding members.
func seededStore(t *testing.T, members []roster.Member) *Store {
	t.Helper()
	s := createTestStore(t)
	if err := s.SeedMembers(context.Background(), members); err != nil {
		t.Fatalf("SeedMembers() failed: %v", err)
	}
	return s
}

func ids(members []roster.Member) []string {
	return roster.IDs(members)
}
