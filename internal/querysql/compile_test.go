package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/lookup"
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/schema"
	"github.com/roach88/djq/internal/testutil"
)

const entrySelect = `SELECT "entry"."id", "entry"."blog_id", "entry"."pub_date", "entry"."headline", "entry"."body" FROM "entry"`

const blogJoin = ` INNER JOIN "blog" AS "blog" ON "blog"."id" = "entry"."blog_id"`

func entryQuery(t *testing.T) (queryir.Query, *schema.Entity) {
	t.Helper()
	s := testutil.BlogSchema(t)
	entry := testutil.MustEntity(t, s, "Entry")
	return queryir.New(entry), entry
}

func TestCompile_BareQuery(t *testing.T) {
	q, _ := entryQuery(t)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+` ORDER BY "entry"."id" ASC`, sql)
	assert.Empty(t, params)
}

func TestCompile_ExcludeYearOrderedByBlogName(t *testing.T) {
	q, _ := entryQuery(t)
	q, err := lookup.From(q).
		ExcludeBy(lookup.Lookups{"pub_date__year": 2010}).
		OrderBy("-blog__name", "id").
		Query()
	require.NoError(t, err)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+blogJoin+
		` WHERE NOT COALESCE(CAST(strftime('%Y', "entry"."pub_date") AS INTEGER) = ?, 0)`+
		` ORDER BY "blog"."name" COLLATE BINARY DESC, "entry"."id" ASC`, sql)
	assert.Equal(t, []any{int64(2010)}, params)
}

func TestCompile_Operators(t *testing.T) {
	tests := []struct {
		name    string
		lookups lookup.Lookups
		where   string
		params  []any
	}{
		{
			name:    "default exact",
			lookups: lookup.Lookups{"headline": "b1 headline 1"},
			where:   `"entry"."headline" = ?`,
			params:  []any{"b1 headline 1"},
		},
		{
			name:    "exact null",
			lookups: lookup.Lookups{"pub_date__exact": nil},
			where:   `"entry"."pub_date" IS NULL`,
		},
		{
			name:    "gt",
			lookups: lookup.Lookups{"id__gt": 2},
			where:   `"entry"."id" > ?`,
			params:  []any{int64(2)},
		},
		{
			name:    "gte",
			lookups: lookup.Lookups{"id__gte": "2"},
			where:   `"entry"."id" >= ?`,
			params:  []any{int64(2)},
		},
		{
			name:    "lte",
			lookups: lookup.Lookups{"id__lte": 2},
			where:   `"entry"."id" <= ?`,
			params:  []any{int64(2)},
		},
		{
			name:    "le",
			lookups: lookup.Lookups{"id__le": 2},
			where:   `"entry"."id" <= ?`,
			params:  []any{int64(2)},
		},
		{
			name:    "in",
			lookups: lookup.Lookups{"id__in": []int{1, 3, 5}},
			where:   `"entry"."id" IN (?, ?, ?)`,
			params:  []any{int64(1), int64(3), int64(5)},
		},
		{
			name:    "empty in",
			lookups: lookup.Lookups{"id__in": []int{}},
			where:   `0 = 1`,
		},
		{
			name:    "contains",
			lookups: lookup.Lookups{"headline__contains": "headline"},
			where:   `"entry"."headline" GLOB ?`,
			params:  []any{"*headline*"},
		},
		{
			name:    "startswith",
			lookups: lookup.Lookups{"headline__startswith": "b1"},
			where:   `"entry"."headline" GLOB ?`,
			params:  []any{"b1*"},
		},
		{
			name:    "endswith",
			lookups: lookup.Lookups{"headline__endswith": "1"},
			where:   `"entry"."headline" GLOB ?`,
			params:  []any{"*1"},
		},
		{
			name:    "iexact",
			lookups: lookup.Lookups{"headline__iexact": "B1 Headline 1"},
			where:   `lower("entry"."headline") LIKE lower(?) ESCAPE '\'`,
			params:  []any{"B1 Headline 1"},
		},
		{
			name:    "istartswith",
			lookups: lookup.Lookups{"headline__istartswith": "B1"},
			where:   `lower("entry"."headline") LIKE lower(?) ESCAPE '\'`,
			params:  []any{"B1%"},
		},
		{
			name:    "iendswith",
			lookups: lookup.Lookups{"headline__iendswith": "LINE 1"},
			where:   `lower("entry"."headline") LIKE lower(?) ESCAPE '\'`,
			params:  []any{"%LINE 1"},
		},
		{
			name:    "isnull true",
			lookups: lookup.Lookups{"pub_date__isnull": true},
			where:   `"entry"."pub_date" IS NOT NULL`,
		},
		{
			name:    "isnull false",
			lookups: lookup.Lookups{"pub_date__isnull": false},
			where:   `"entry"."pub_date" IS NULL`,
		},
		{
			name:    "range",
			lookups: lookup.Lookups{"pub_date__range": []string{"2010-01-01", "2010-06-30"}},
			where:   `"entry"."pub_date" BETWEEN ? AND ?`,
			params:  []any{"2010-01-01", "2010-06-30"},
		},
		{
			name:    "year",
			lookups: lookup.Lookups{"pub_date__year": 2010},
			where:   `CAST(strftime('%Y', "entry"."pub_date") AS INTEGER) = ?`,
			params:  []any{int64(2010)},
		},
		{
			name:    "month",
			lookups: lookup.Lookups{"pub_date__month": 4},
			where:   `CAST(strftime('%m', "entry"."pub_date") AS INTEGER) = ?`,
			params:  []any{int64(4)},
		},
		{
			name:    "day",
			lookups: lookup.Lookups{"pub_date__day": 14},
			where:   `CAST(strftime('%d', "entry"."pub_date") AS INTEGER) = ?`,
			params:  []any{int64(14)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, _ := entryQuery(t)
			q, err := lookup.FilterBy(base, tt.lookups)
			require.NoError(t, err)

			sql, params, err := NewSQLCompiler().Compile(q)
			require.NoError(t, err)
			assert.Equal(t, entrySelect+" WHERE "+tt.where+` ORDER BY "entry"."id" ASC`, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	base, _ := entryQuery(t)
	q, err := lookup.FilterBy(base, lookup.Lookups{
		"headline":           "'; DROP TABLE entry; --",
		"blog__name__iexact": "Robert'); --",
	})
	require.NoError(t, err)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "Robert")
	assert.Len(t, params, 2)
}

func TestCompile_MultipleFiltersAndJoins(t *testing.T) {
	base, _ := entryQuery(t)
	q, err := lookup.From(base).
		FilterBy(lookup.Lookups{"blog__name": "blog1", "pub_date__month": 4}).
		ExcludeBy(lookup.Lookups{"blog__entries__id": 1}).
		Query()
	require.NoError(t, err)

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+blogJoin+
		` INNER JOIN "entry" AS "blog__entries" ON "blog__entries"."blog_id" = "blog"."id"`+
		` WHERE "blog"."name" = ?`+
		` AND CAST(strftime('%m', "entry"."pub_date") AS INTEGER) = ?`+
		` AND NOT COALESCE("blog__entries"."id" = ?, 0)`+
		` ORDER BY "entry"."id" ASC`, sql)
	assert.Equal(t, []any{"blog1", int64(4), int64(1)}, params)
}

func TestCompile_TiebreakerFollowsOrdering(t *testing.T) {
	base, _ := entryQuery(t)

	q, err := lookup.OrderBy(base, "-pub_date", "headline")
	require.NoError(t, err)
	sql, _, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+
		` ORDER BY "entry"."pub_date" DESC, "entry"."headline" COLLATE BINARY ASC, "entry"."id" ASC`, sql)

	q, err = lookup.OrderBy(base, "-id")
	require.NoError(t, err)
	sql, _, err = NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+` ORDER BY "entry"."id" DESC`, sql)
}

func TestCompile_OrderByExtract(t *testing.T) {
	base, entry := entryQuery(t)
	pubDate, _ := entry.Field("pub_date")
	col := queryir.Column{Alias: "entry", Field: pubDate}

	q := base.OrderBy(queryir.Desc{Expr: queryir.Extract{Part: queryir.PartYear, Column: col}})
	sql, _, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+
		` ORDER BY CAST(strftime('%Y', "entry"."pub_date") AS INTEGER) DESC, "entry"."id" ASC`, sql)
}

func TestCompile_PatternEscaping(t *testing.T) {
	tests := []struct {
		lookup string
		value  string
		param  string
	}{
		{"headline__contains", "50%_off", "*50%_off*"},
		{"headline__contains", "a*b?c[d]", "*a[*]b[?]c[[]d]*"},
		{"headline__istartswith", "50%_off", `50\%\_off%`},
		{"headline__iendswith", `back\slash`, `%back\\slash`},
		{"headline__iexact", "a*b", "a*b"},
	}

	for _, tt := range tests {
		t.Run(tt.lookup+"/"+tt.value, func(t *testing.T) {
			base, _ := entryQuery(t)
			q, err := lookup.FilterBy(base, lookup.Lookups{tt.lookup: tt.value})
			require.NoError(t, err)

			_, params, err := NewSQLCompiler().Compile(q)
			require.NoError(t, err)
			assert.Equal(t, []any{tt.param}, params)
		})
	}
}

func TestCompile_NestedPredicates(t *testing.T) {
	base, entry := entryQuery(t)
	id, _ := entry.Field("id")
	col := queryir.Column{Alias: "entry", Field: id}

	q := base.Filter(queryir.Not{Predicate: queryir.And{Predicates: []queryir.Predicate{
		queryir.Compare{Left: col, Op: queryir.OpGt, Value: ir.Int(1)},
		queryir.IsNull{Expr: col},
	}}}).Filter(queryir.And{})

	sql, params, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, entrySelect+
		` WHERE NOT COALESCE("entry"."id" > ? AND "entry"."id" IS NULL, 0) AND 1 = 1`+
		` ORDER BY "entry"."id" ASC`, sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestCompile_Errors(t *testing.T) {
	base, entry := entryQuery(t)
	id, _ := entry.Field("id")

	tests := []struct {
		name  string
		query queryir.Query
		err   string
	}{
		{
			name:  "zero query",
			query: queryir.Query{},
			err:   "query has no root entity",
		},
		{
			name:  "unknown alias",
			query: base.Filter(queryir.Compare{Left: queryir.Column{Alias: "blog", Field: id}, Op: queryir.OpEq, Value: ir.Int(1)}),
			err:   `unknown alias "blog"`,
		},
		{
			name:  "null comparison",
			query: base.Filter(queryir.Compare{Left: queryir.Column{Alias: "entry", Field: id}, Op: queryir.OpGt, Value: ir.Null{}}),
			err:   "cannot compare",
		},
		{
			name:  "list parameter",
			query: base.Filter(queryir.Compare{Left: queryir.Column{Alias: "entry", Field: id}, Op: queryir.OpEq, Value: ir.List{ir.Int(1)}}),
			err:   "list cannot be used as SQL parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"entry"`, quoteIdent("entry"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
