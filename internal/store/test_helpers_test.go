package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/djq/internal/schema"
	"github.com/roach88/djq/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp directory.
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

// createMemoryStore creates a new in-memory store.
func createMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createBlogStore creates a store holding the reference blog dataset.
func createBlogStore(t *testing.T) (*Store, *schema.Schema) {
	t.Helper()
	ctx := context.Background()
	s := createMemoryStore(t)
	sch := testutil.BlogSchema(t)

	if err := s.CreateTables(ctx, sch); err != nil {
		t.Fatalf("CreateTables() failed: %v", err)
	}
	for _, fx := range testutil.BlogFixtures() {
		recs := make([]Record, len(fx.Rows))
		for i, row := range fx.Rows {
			recs[i] = Record(row)
		}
		if err := s.InsertAll(ctx, testutil.MustEntity(t, sch, fx.Entity), recs); err != nil {
			t.Fatalf("InsertAll(%s) failed: %v", fx.Entity, err)
		}
	}
	return s, sch
}

// ids converts fetched primary keys to ints for compact assertions.
func ids(t *testing.T, raw []any) []int {
	t.Helper()
	out := make([]int, len(raw))
	for i, v := range raw {
		n, ok := v.(int64)
		if !ok {
			t.Fatalf("id %d is %T, want int64", i, v)
		}
		out[i] = int(n)
	}
	return out
}
