package lookup

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/djq/internal/queryir"
)

// Lookups maps lookup keys to values, like keyword arguments:
//
//	lookup.Lookups{"pub_date__year": 2010, "blog__name__startswith": "b"}
//
// Keys are compiled in sorted order so the generated joins are
// deterministic. Each key AND-combines with the others.
type Lookups map[string]any

// FilterBy adds one predicate per lookup to q.
//
// A key is a path of relationship names ending in a field, optionally
// followed by an operator suffix; without a suffix the field is compared
// for equality. Relationships along the path are joined implicitly.
//
// On error the returned Query is the zero value and q is unchanged.
func FilterBy(q queryir.Query, lookups Lookups) (queryir.Query, error) {
	return filterOrExclude(q, false, lookups)
}

// ExcludeBy is FilterBy with every predicate negated.
func ExcludeBy(q queryir.Query, lookups Lookups) (queryir.Query, error) {
	return filterOrExclude(q, true, lookups)
}

func filterOrExclude(q queryir.Query, negate bool, lookups Lookups) (queryir.Query, error) {
	for _, key := range slices.Sorted(maps.Keys(lookups)) {
		var err error
		q, err = compileLookup(q, negate, ParsePath(key), lookups[key])
		if err != nil {
			return queryir.Query{}, err
		}
	}
	return q, nil
}

// compileLookup folds one lookup into q. The join point starts and ends at
// the root so joins from one lookup never affect the next.
func compileLookup(q queryir.Query, negate bool, p Path, value any) (queryir.Query, error) {
	r, err := walk(q, p, false)
	if err != nil {
		return q, err
	}

	entity := r.field.Entity.Name
	opName := "exact"
	op := OperatorFunc(exactOp)
	switch len(r.rest) {
	case 0:
	case 1:
		var ok bool
		opName = r.rest[0]
		if op, ok = LookupOperator(opName); !ok {
			return q, newUnknownOperator(p, opName, entity,
				fmt.Sprintf("%q is neither an operator nor reachable from field %s", opName, r.field))
		}
	default:
		if _, ok := LookupOperator(r.rest[0]); !ok {
			return q, newUnknownOperator(p, r.rest[0], entity,
				fmt.Sprintf("%q is neither an operator nor reachable from field %s", r.rest[0], r.field))
		}
		return q, newUnknownOperator(p, r.rest[1], entity,
			fmt.Sprintf("unexpected token %q after operator %q", r.rest[1], r.rest[0]))
	}

	pred, err := op(r.column(), value)
	if err != nil {
		return q, newInvalidValue(p, opName, entity, err)
	}
	if negate {
		pred = queryir.Not{Predicate: pred}
	}
	return r.query.Filter(pred).ResetJoinpoint(), nil
}
