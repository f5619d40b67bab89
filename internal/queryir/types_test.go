package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/schema"
	"github.com/roach88/djq/internal/testutil"
)

func blogEntities(t *testing.T) (*schema.Entity, *schema.Entity) {
	t.Helper()
	s := testutil.BlogSchema(t)
	return testutil.MustEntity(t, s, "Blog"), testutil.MustEntity(t, s, "Entry")
}

func relationship(t *testing.T, e *schema.Entity, name string) *schema.Relationship {
	t.Helper()
	d, ok := e.Attribute(name)
	require.True(t, ok, "attribute %s", name)
	rel, ok := d.(*schema.Relationship)
	require.True(t, ok, "%s is not a relationship", name)
	return rel
}

func field(t *testing.T, e *schema.Entity, name string) *schema.Field {
	t.Helper()
	f, ok := e.Field(name)
	require.True(t, ok, "field %s", name)
	return f
}

func TestSealedInterfaces(t *testing.T) {
	var _ Expr = Column{}
	var _ Expr = Extract{}
	var _ Expr = Desc{}

	var _ Predicate = Compare{}
	var _ Predicate = Between{}
	var _ Predicate = In{}
	var _ Predicate = Match{}
	var _ Predicate = IsNull{}
	var _ Predicate = Not{}
	var _ Predicate = And{}
}

func TestNewStartsAtRoot(t *testing.T) {
	_, entry := blogEntities(t)
	q := New(entry)

	assert.Same(t, entry, q.Root())
	assert.Equal(t, "entry", q.RootAlias())
	assert.True(t, q.Joinpoint().IsRoot())
	assert.Same(t, entry, q.Joinpoint().Entity)
	assert.Empty(t, q.Joins())
	assert.Empty(t, q.Filters())
	assert.Empty(t, q.Ordering())
}

func TestJoinMovesJoinpoint(t *testing.T) {
	blog, entry := blogEntities(t)
	q := New(blog)

	joined, err := q.Join(relationship(t, blog, "entries"))
	require.NoError(t, err)

	jp := joined.Joinpoint()
	assert.Same(t, entry, jp.Entity)
	assert.Equal(t, "entries", jp.Alias)
	assert.Equal(t, "entries", jp.Path)
	require.Len(t, joined.Joins(), 1)
	assert.Equal(t, "blog", joined.Joins()[0].FromAlias)

	// Receiver is untouched
	assert.True(t, q.Joinpoint().IsRoot())
	assert.Empty(t, q.Joins())
}

func TestJoinMultiHopPath(t *testing.T) {
	blog, entry := blogEntities(t)
	q, err := New(blog).Join(relationship(t, blog, "entries"))
	require.NoError(t, err)
	q, err = q.Join(relationship(t, entry, "blog"))
	require.NoError(t, err)

	jp := q.Joinpoint()
	assert.Same(t, blog, jp.Entity)
	assert.Equal(t, "entries__blog", jp.Path)
	assert.Equal(t, "entries__blog", jp.Alias)
	assert.Equal(t, "entries", q.Joins()[1].FromAlias)
}

func TestJoinDeduplicatesByPath(t *testing.T) {
	blog, _ := blogEntities(t)
	entries := relationship(t, blog, "entries")

	q, err := New(blog).Join(entries)
	require.NoError(t, err)
	q, err = q.ResetJoinpoint().Join(entries)
	require.NoError(t, err)

	assert.Len(t, q.Joins(), 1)
	assert.Equal(t, "entries", q.Joinpoint().Alias)
}

func TestJoinRejectsForeignRelationship(t *testing.T) {
	blog, entry := blogEntities(t)
	_, err := New(entry).Join(relationship(t, blog, "entries"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot join Blog.entries from Entry")
}

func TestJoinAliasAvoidsRootTable(t *testing.T) {
	s, err := schema.Build(schema.Definition{Entities: []schema.EntityDef{{
		Name:   "Node",
		Fields: []schema.FieldDef{{Name: "id", Type: "integer"}, {Name: "node_id", Type: "integer"}},
		Relationships: []schema.RelationshipDef{
			{Name: "node", Target: "Node"},
		},
	}}})
	require.NoError(t, err)
	node := testutil.MustEntity(t, s, "Node")

	q, err := New(node).Join(relationship(t, node, "node"))
	require.NoError(t, err)
	assert.Equal(t, "node_2", q.Joinpoint().Alias)
	assert.Equal(t, "node", q.Joinpoint().Path)
}

func TestFilterIsPersistent(t *testing.T) {
	_, entry := blogEntities(t)
	base := New(entry)
	col := Column{Alias: "entry", Field: field(t, entry, "id")}

	a := base.Filter(Compare{Left: col, Op: OpEq, Value: ir.Int(1)})
	b := a.Filter(Compare{Left: col, Op: OpGt, Value: ir.Int(2)})
	c := a.Filter(Compare{Left: col, Op: OpLte, Value: ir.Int(3)})

	assert.Empty(t, base.Filters())
	assert.Len(t, a.Filters(), 1)
	require.Len(t, b.Filters(), 2)
	require.Len(t, c.Filters(), 2)
	assert.Equal(t, OpGt, b.Filters()[1].(Compare).Op)
	assert.Equal(t, OpLte, c.Filters()[1].(Compare).Op)
}

func TestOrderByAppends(t *testing.T) {
	_, entry := blogEntities(t)
	id := Column{Alias: "entry", Field: field(t, entry, "id")}
	headline := Column{Alias: "entry", Field: field(t, entry, "headline")}

	q := New(entry).OrderBy(Desc{Expr: headline})
	q2 := q.OrderBy(id)

	assert.Len(t, q.Ordering(), 1)
	assert.Equal(t, []Expr{Desc{Expr: headline}, id}, q2.Ordering())
}

func TestColumnAtJoinpoint(t *testing.T) {
	blog, entry := blogEntities(t)
	q, err := New(blog).Join(relationship(t, blog, "entries"))
	require.NoError(t, err)

	col, err := q.Column(field(t, entry, "headline"))
	require.NoError(t, err)
	assert.Equal(t, "entries", col.Alias)

	_, err = q.Column(field(t, blog, "name"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to join point Entry")
}

func TestAliasEntity(t *testing.T) {
	blog, entry := blogEntities(t)
	q, err := New(blog).Join(relationship(t, blog, "entries"))
	require.NoError(t, err)

	e, ok := q.AliasEntity("blog")
	assert.True(t, ok)
	assert.Same(t, blog, e)

	e, ok = q.AliasEntity("entries")
	assert.True(t, ok)
	assert.Same(t, entry, e)

	_, ok = q.AliasEntity("comments")
	assert.False(t, ok)
}
