package lookup

import (
	"fmt"

	"github.com/roach88/djq/internal/queryir"
)

// OrderBy appends ordering terms to q.
//
// A string term is an order path: an optional "+" or "-" sign followed by
// relationship names ending in a field ("-blog__name"). Relationships are
// joined implicitly. A queryir.Expr term is used as is.
//
// The ordering is applied first and the discovered joins after it, in the
// order they were found. On error the returned Query is the zero value.
func OrderBy(q queryir.Query, terms ...any) (queryir.Query, error) {
	exprs := make([]queryir.Expr, 0, len(terms))
	var joins []JoinRequest

	// Resolve each path on top of the joins found so far, so aliases match
	// the ones the final join replay produces.
	scratch := q
	for i, term := range terms {
		switch t := term.(type) {
		case string:
			p := ParseOrderPath(t)
			r, err := walk(scratch, p, true)
			if err != nil {
				return queryir.Query{}, err
			}
			if len(r.rest) > 0 {
				return queryir.Query{}, newUnknownOperator(p, r.rest[0], r.field.Entity.Name,
					fmt.Sprintf("order paths end at a field; unexpected token %q after %s", r.rest[0], r.field))
			}

			var expr queryir.Expr = r.column()
			if p.Direction() == Descending {
				expr = queryir.Desc{Expr: expr}
			}
			exprs = append(exprs, expr)
			joins = append(joins, r.joins...)
			scratch = r.query
		case queryir.Expr:
			exprs = append(exprs, t)
		default:
			return queryir.Query{}, &ResolutionError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("order term %d has unsupported type %T", i, term),
				Path:    fmt.Sprint(term),
			}
		}
	}

	out, err := applyJoins(q.OrderBy(exprs...), joins)
	if err != nil {
		return queryir.Query{}, err
	}
	return out.ResetJoinpoint(), nil
}

// applyJoins replays join requests in discovery order. Each request at hop
// zero starts again from the root.
func applyJoins(q queryir.Query, joins []JoinRequest) (queryir.Query, error) {
	for _, j := range joins {
		if j.Hop == 0 {
			q = q.ResetJoinpoint()
		}
		var err error
		if q, err = q.Join(j.Relationship); err != nil {
			return q, fmt.Errorf("replaying join %s: %w", j.Relationship, err)
		}
	}
	return q, nil
}
