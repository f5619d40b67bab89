// Package lookup compiles string-encoded attribute lookups into queryir
// queries.
//
// A lookup key is a "__"-separated path. Each token is resolved against the
// current join point: a relationship joins implicitly and moves the join
// point to the related entity, a scalar field ends the walk. For filters a
// field may be followed by one operator suffix; without one the field is
// compared for equality:
//
//	lookup.FilterBy(q, lookup.Lookups{
//		"name__exact":              "blog1",
//		"entries__pub_date__range": []string{"2010-01-01", "2010-03-01"},
//	})
//
// Order paths take an optional "+" or "-" sign and no suffix:
//
//	lookup.OrderBy(q, "-blog__name", "id")
//
// # Operator suffixes
//
//	gt gte lte le             comparisons (lte and le are both <=)
//	exact                     equality (the default)
//	iexact                    case-insensitive equality
//	contains                  substring
//	startswith istartswith    prefix, optionally case-insensitive
//	endswith iendswith        suffix, optionally case-insensitive
//	in                        membership in a list
//	range                     inclusive two-element bounds
//	isnull                    truthy: IS NOT NULL, falsy: IS NULL
//	year month day            calendar component equality on dates
//
// The table is closed: an unknown suffix is an error, never a no-op.
//
// # Errors
//
// Every failure is a *ResolutionError whose Code is one of
// UNRESOLVABLE_ATTRIBUTE, AMBIGUOUS_TERMINAL, UNKNOWN_OPERATOR or
// INVALID_VALUE. Compilation is all-or-nothing: the input query is never
// modified, and a failed call returns the zero Query.
package lookup
