package lookup

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/schema"
)

// OperatorFunc builds the predicate for one operator suffix from a resolved
// column and the lookup value. The error return covers values the operator
// cannot use, such as a range without two bounds.
type OperatorFunc func(col queryir.Column, value any) (queryir.Predicate, error)

// operators is the closed suffix table. It is built once and never
// modified; callers read it through LookupOperator.
var operators = map[string]OperatorFunc{
	"gt":          compareOp(queryir.OpGt),
	"gte":         compareOp(queryir.OpGte),
	"lte":         compareOp(queryir.OpLte),
	"le":          compareOp(queryir.OpLte),
	"contains":    matchOp(queryir.MatchContains, false),
	"in":          inOp,
	"exact":       exactOp,
	"iexact":      matchOp(queryir.MatchExact, true),
	"startswith":  matchOp(queryir.MatchPrefix, false),
	"istartswith": matchOp(queryir.MatchPrefix, true),
	"endswith":    matchOp(queryir.MatchSuffix, false),
	"iendswith":   matchOp(queryir.MatchSuffix, true),
	"isnull":      isNullOp,
	"range":       rangeOp,
	"year":        extractOp(queryir.PartYear),
	"month":       extractOp(queryir.PartMonth),
	"day":         extractOp(queryir.PartDay),
}

// LookupOperator returns the function registered for a suffix.
func LookupOperator(name string) (OperatorFunc, bool) {
	op, ok := operators[name]
	return op, ok
}

// OperatorNames returns every registered suffix, sorted.
func OperatorNames() []string {
	return slices.Sorted(maps.Keys(operators))
}

// exactOp is also the default when a path ends on a field.
func exactOp(col queryir.Column, value any) (queryir.Predicate, error) {
	v, err := scalar(col.Field, value)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{Left: col, Op: queryir.OpEq, Value: v}, nil
}

func compareOp(op queryir.CompareOp) OperatorFunc {
	return func(col queryir.Column, value any) (queryir.Predicate, error) {
		v, err := scalar(col.Field, value)
		if err != nil {
			return nil, err
		}
		if _, isNull := v.(ir.Null); isNull {
			return nil, fmt.Errorf("cannot compare %s %s null", col.Field, op)
		}
		return queryir.Compare{Left: col, Op: op, Value: v}, nil
	}
}

func matchOp(kind queryir.MatchKind, fold bool) OperatorFunc {
	return func(col queryir.Column, value any) (queryir.Predicate, error) {
		switch col.Field.Type {
		case schema.TypeText, schema.TypeDate, schema.TypeDateTime:
		default:
			return nil, fmt.Errorf("pattern match needs a text field, %s is %s", col.Field, col.Field.Type)
		}
		v, err := ir.FromGo(value)
		if err != nil {
			return nil, err
		}
		if ir.IsCollection(value) {
			return nil, fmt.Errorf("pattern must be a single value, got a list")
		}
		if _, isNull := v.(ir.Null); isNull {
			return nil, fmt.Errorf("pattern must not be null")
		}
		text, err := schema.CoerceTo(schema.TypeText, v)
		if err != nil {
			return nil, err
		}
		return queryir.Match{
			Column:   col,
			Kind:     kind,
			Pattern:  string(text.(ir.String)),
			FoldCase: fold,
		}, nil
	}
}

func inOp(col queryir.Column, value any) (queryir.Predicate, error) {
	list, err := collection(value)
	if err != nil {
		return nil, err
	}
	values := make(ir.List, len(list))
	for i, elem := range list {
		v, err := col.Field.Coerce(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		values[i] = v
	}
	return queryir.In{Expr: col, Values: values}, nil
}

// isNullOp follows the established contract: a truthy value selects rows
// where the field IS NOT NULL, a falsy one rows where it IS NULL.
func isNullOp(col queryir.Column, value any) (queryir.Predicate, error) {
	v, err := ir.FromGo(value)
	if err != nil {
		return nil, err
	}
	return queryir.IsNull{Expr: col, Negated: ir.Truthy(v)}, nil
}

func rangeOp(col queryir.Column, value any) (queryir.Predicate, error) {
	list, err := collection(value)
	if err != nil {
		return nil, err
	}
	if len(list) != 2 {
		return nil, fmt.Errorf("range needs exactly two bounds, got %d", len(list))
	}
	low, err := col.Field.Coerce(list[0])
	if err != nil {
		return nil, fmt.Errorf("low bound: %w", err)
	}
	high, err := col.Field.Coerce(list[1])
	if err != nil {
		return nil, fmt.Errorf("high bound: %w", err)
	}
	if isNull(low) || isNull(high) {
		return nil, fmt.Errorf("range bounds must not be null")
	}
	return queryir.Between{Expr: col, Low: low, High: high}, nil
}

func extractOp(part queryir.DatePart) OperatorFunc {
	return func(col queryir.Column, value any) (queryir.Predicate, error) {
		if !col.Field.Type.IsTemporal() {
			return nil, fmt.Errorf("%s needs a date field, %s is %s", part, col.Field, col.Field.Type)
		}
		v, err := ir.FromGo(value)
		if err != nil {
			return nil, err
		}
		if isNull(v) {
			return nil, fmt.Errorf("%s must not be null", part)
		}
		if _, isList := v.(ir.List); isList {
			return nil, fmt.Errorf("%s must be a single value, got a list", part)
		}
		n, err := schema.CoerceTo(schema.TypeInteger, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part, err)
		}
		return queryir.Compare{
			Left:  queryir.Extract{Part: part, Column: col},
			Op:    queryir.OpEq,
			Value: n,
		}, nil
	}
}

// scalar converts a single lookup value to the field's storage form.
func scalar(f *schema.Field, value any) (ir.Value, error) {
	if ir.IsCollection(value) {
		return nil, fmt.Errorf("%s: expected a single value, got a list", f)
	}
	v, err := ir.FromGo(value)
	if err != nil {
		return nil, err
	}
	return f.Coerce(v)
}

// collection converts a slice or array value to its elements.
func collection(value any) (ir.List, error) {
	if !ir.IsCollection(value) {
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
	v, err := ir.FromGo(value)
	if err != nil {
		return nil, err
	}
	return v.(ir.List), nil
}

func isNull(v ir.Value) bool {
	_, ok := v.(ir.Null)
	return ok
}
