package lookup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/schema"
	"github.com/roach88/djq/internal/testutil"
)

type blogFixture struct {
	blog  *schema.Entity
	entry *schema.Entity
}

func newBlogFixture(t *testing.T) blogFixture {
	t.Helper()
	s := testutil.BlogSchema(t)
	return blogFixture{
		blog:  testutil.MustEntity(t, s, "Blog"),
		entry: testutil.MustEntity(t, s, "Entry"),
	}
}

func (f blogFixture) field(t *testing.T, e *schema.Entity, name string) *schema.Field {
	t.Helper()
	fld, ok := e.Field(name)
	require.True(t, ok, "field %s.%s", e.Name, name)
	return fld
}

func (f blogFixture) col(t *testing.T, alias string, e *schema.Entity, name string) queryir.Column {
	t.Helper()
	return queryir.Column{Alias: alias, Field: f.field(t, e, name)}
}

func joinPaths(q queryir.Query) []string {
	var paths []string
	for _, j := range q.Joins() {
		paths = append(paths, j.Path)
	}
	return paths
}
