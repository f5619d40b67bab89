package testutil

import (
	"testing"
	"time"

	"github.com/roach88/djq/internal/schema"
)

// BlogDefinition is the reference schema used across package tests: a Blog
// owns many Entry rows, and each Entry points back to its Blog.
func BlogDefinition() schema.Definition {
	return schema.Definition{Entities: []schema.EntityDef{
		{
			Name: "Blog",
			Fields: []schema.FieldDef{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
			},
			Relationships: []schema.RelationshipDef{
				{Name: "entries", Target: "Entry", Many: true, Backref: "blog"},
			},
		},
		{
			Name: "Entry",
			Fields: []schema.FieldDef{
				{Name: "id", Type: "integer"},
				{Name: "blog_id", Type: "integer"},
				{Name: "pub_date", Type: "date", Nullable: true},
				{Name: "headline", Type: "text"},
				{Name: "body", Type: "text"},
			},
		},
	}}
}

// BlogSchema builds BlogDefinition, failing the test on error.
func BlogSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.Build(BlogDefinition())
	if err != nil {
		t.Fatalf("schema.Build() failed: %v", err)
	}
	return s
}

// MustEntity looks up an entity, failing the test if it is missing.
func MustEntity(t testing.TB, s *schema.Schema, name string) *schema.Entity {
	t.Helper()
	e, ok := s.Entity(name)
	if !ok {
		t.Fatalf("entity %q not found", name)
	}
	return e
}

// Fixture is a batch of rows for one entity.
type Fixture struct {
	Entity string
	Rows   []map[string]any
}

// BlogFixtures is the reference dataset: two blogs with three entries each,
// all dated in 2010 except the last entry of blog2.
func BlogFixtures() []Fixture {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []Fixture{
		{Entity: "Blog", Rows: []map[string]any{
			{"id": 1, "name": "blog1"},
			{"id": 2, "name": "blog2"},
		}},
		{Entity: "Entry", Rows: []map[string]any{
			{"id": 1, "blog_id": 1, "headline": "b1 headline 1", "body": "body 1", "pub_date": date(2010, 2, 5)},
			{"id": 2, "blog_id": 1, "headline": "b1 headline 2", "body": "body 2", "pub_date": date(2010, 4, 8)},
			{"id": 3, "blog_id": 1, "headline": "b1 headline 3", "body": "body 3", "pub_date": date(2010, 9, 14)},
			{"id": 4, "blog_id": 2, "headline": "b2 headline 1", "body": "body 1", "pub_date": date(2010, 5, 12)},
			{"id": 5, "blog_id": 2, "headline": "b2 headline 2", "body": "body 2", "pub_date": date(2010, 7, 18)},
			{"id": 6, "blog_id": 2, "headline": "b2 headline 3", "body": "body 3", "pub_date": date(2011, 8, 27)},
		}},
	}
}
