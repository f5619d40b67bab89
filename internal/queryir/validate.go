package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// Errors lists references a backend cannot render: unknown aliases,
	// columns read through the wrong table, misplaced Desc terms.
	Errors []string

	// Warnings lists constructs that compile but may surprise, such as
	// ordering by a column reached through a one-to-many join, which can
	// repeat root rows.
	Warnings []string
}

// OK reports whether the query has no errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Err joins the errors into one error, or returns nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Errors, "; "))
}

// Validate checks that every column the query references is reachable
// through its joins.
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{q: q}
	if q.root == nil {
		v.addError("query has no root entity")
		return v.result()
	}

	for i, p := range q.filters {
		v.validatePredicate(fmt.Sprintf("filter[%d]", i), p)
	}
	for i, e := range q.order {
		where := fmt.Sprintf("order[%d]", i)
		if d, ok := e.(Desc); ok {
			e = d.Expr
		}
		v.validateExpr(where, e, false)
		if col, ok := orderColumn(e); ok {
			if path, fans := v.fanOut(col.Alias); fans {
				v.addWarning("%s: ordering by %s through one-to-many join %q may repeat %s rows",
					where, col.Field, path, q.root.Name)
			}
		}
	}
	return v.result()
}

// validator accumulates findings during traversal.
type validator struct {
	q        Query
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) result() ValidationResult {
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

func (v *validator) validatePredicate(where string, p Predicate) {
	switch pred := p.(type) {
	case Compare:
		v.validateExpr(where, pred.Left, true)
	case Between:
		v.validateExpr(where, pred.Expr, true)
	case In:
		v.validateExpr(where, pred.Expr, true)
	case Match:
		v.validateColumn(where, pred.Column)
	case IsNull:
		v.validateExpr(where, pred.Expr, true)
	case Not:
		if pred.Predicate == nil {
			v.addError("%s: negation of nothing", where)
			return
		}
		v.validatePredicate(where, pred.Predicate)
	case And:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.and[%d]", where, i), sub)
		}
	default:
		v.addError("%s: unsupported predicate type %T", where, p)
	}
}

func (v *validator) validateExpr(where string, e Expr, inPredicate bool) {
	switch expr := e.(type) {
	case Column:
		v.validateColumn(where, expr)
	case Extract:
		v.validateColumn(where, expr.Column)
		if !expr.Column.Field.Type.IsTemporal() {
			v.addError("%s: cannot extract %s from %s field %s",
				where, expr.Part, expr.Column.Field.Type, expr.Column.Field)
		}
	case Desc:
		if inPredicate {
			v.addError("%s: descending term used in a predicate", where)
			return
		}
		v.addError("%s: nested descending term", where)
	default:
		v.addError("%s: unsupported expression type %T", where, e)
	}
}

func (v *validator) validateColumn(where string, col Column) {
	if col.Field == nil {
		v.addError("%s: column %q has no field", where, col.Alias)
		return
	}
	entity, ok := v.q.AliasEntity(col.Alias)
	if !ok {
		v.addError("%s: unknown alias %q for %s", where, col.Alias, col.Field)
		return
	}
	if entity != col.Field.Entity {
		v.addError("%s: alias %q reads %s, not %s", where, col.Alias, entity.Name, col.Field.Entity.Name)
	}
}

// fanOut reports the first one-to-many join on the way to alias.
func (v *validator) fanOut(alias string) (string, bool) {
	for _, j := range v.q.joins {
		if j.Relationship.Many && (j.Alias == alias || strings.HasPrefix(v.pathOf(alias), j.Path+PathSeparator)) {
			return j.Path, true
		}
	}
	return "", false
}

func (v *validator) pathOf(alias string) string {
	for _, j := range v.q.joins {
		if j.Alias == alias {
			return j.Path
		}
	}
	return ""
}

func orderColumn(e Expr) (Column, bool) {
	switch expr := e.(type) {
	case Column:
		return expr, true
	case Extract:
		return expr.Column, true
	}
	return Column{}, false
}
