package queryir

import (
	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/schema"
)

// Expr is a value-producing expression: something a predicate compares or
// an ordering sorts by.
//
// This is a sealed interface - only types in this package implement it.
//
// Expr types:
//   - Column: a field reached through a table alias
//   - Extract: a calendar component of a temporal column
//   - Desc: descending wrapper, valid only in ordering
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Predicate is a boolean condition folded into a query's WHERE clause.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Compare: expr <op> value
//   - Between: expr BETWEEN low AND high (inclusive)
//   - In: expr IN (values...)
//   - Match: pattern match with wildcard semantics chosen by Kind
//   - IsNull: expr IS [NOT] NULL
//   - Not: logical negation
//   - And: conjunction (empty = always true)
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Column references a scalar field through the alias of the table (root or
// join) it is read from.
//
// Example: the pub_date of entries joined from Blog is
//
//	Column{Alias: "entries", Field: <Entry.pub_date>}
type Column struct {
	Alias string
	Field *schema.Field
}

func (Column) exprNode() {}

// DatePart names a calendar component.
type DatePart string

const (
	PartYear  DatePart = "year"
	PartMonth DatePart = "month"
	PartDay   DatePart = "day"
)

// Extract reads one calendar component of a date or datetime column as an
// integer.
type Extract struct {
	Part   DatePart
	Column Column
}

func (Extract) exprNode() {}

// Desc marks an ordering term as descending. Terms without it sort
// ascending.
type Desc struct {
	Expr Expr
}

func (Desc) exprNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpLte CompareOp = "<="
)

// Compare is expr <op> value. Comparing for equality with ir.Null renders
// as IS NULL.
type Compare struct {
	Left  Expr
	Op    CompareOp
	Value ir.Value
}

func (Compare) predicateNode() {}

// Between is an inclusive range test.
type Between struct {
	Expr Expr
	Low  ir.Value
	High ir.Value
}

func (Between) predicateNode() {}

// In is a membership test. An empty Values list matches nothing.
type In struct {
	Expr   Expr
	Values ir.List
}

func (In) predicateNode() {}

// MatchKind selects where the pattern must occur in the column text.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchContains MatchKind = "contains"
	MatchPrefix   MatchKind = "prefix"
	MatchSuffix   MatchKind = "suffix"
)

// Match is a text pattern test. Pattern is the literal text to look for;
// backends escape its wildcard characters before adding their own.
// FoldCase makes the comparison case-insensitive.
type Match struct {
	Column   Column
	Kind     MatchKind
	Pattern  string
	FoldCase bool
}

func (Match) predicateNode() {}

// IsNull tests for SQL NULL. Negated flips it to IS NOT NULL.
type IsNull struct {
	Expr    Expr
	Negated bool
}

func (IsNull) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
