package lookup

import "github.com/roach88/djq/internal/queryir"

// Builder chains lookup calls the way query methods chain:
//
//	q, err := lookup.From(queryir.New(entry)).
//		ExcludeBy(lookup.Lookups{"pub_date__year": 2010}).
//		OrderBy("-blog__name", "id").
//		Query()
//
// The first error stops the chain; later calls are no-ops. Builder is a
// value, so a partially built chain can be branched like a Query.
type Builder struct {
	q   queryir.Query
	err error
}

// From starts a chain at q.
func From(q queryir.Query) Builder {
	return Builder{q: q}
}

// FilterBy applies FilterBy to the chain.
func (b Builder) FilterBy(lookups Lookups) Builder {
	if b.err != nil {
		return b
	}
	b.q, b.err = FilterBy(b.q, lookups)
	return b
}

// ExcludeBy applies ExcludeBy to the chain.
func (b Builder) ExcludeBy(lookups Lookups) Builder {
	if b.err != nil {
		return b
	}
	b.q, b.err = ExcludeBy(b.q, lookups)
	return b
}

// OrderBy applies OrderBy to the chain.
func (b Builder) OrderBy(terms ...any) Builder {
	if b.err != nil {
		return b
	}
	b.q, b.err = OrderBy(b.q, terms...)
	return b
}

// Err returns the first error of the chain.
func (b Builder) Err() error { return b.err }

// Query returns the built query, or the first error.
func (b Builder) Query() (queryir.Query, error) {
	if b.err != nil {
		return queryir.Query{}, b.err
	}
	return b.q, nil
}
