package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/schema"
)

// SQLCompiler compiles a queryir.Query to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries end with the root primary key in ORDER BY so results
// are deterministic even when the requested ordering has ties.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The statement selects every column of the root entity, in field
// declaration order:
//
//	SELECT "entry"."id", ... FROM "entry"
//	INNER JOIN "blog" AS "blog" ON "blog"."id" = "entry"."blog_id"
//	WHERE ... ORDER BY ..., "entry"."id" ASC
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	root := q.Root()
	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	for i, f := range root.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(column(q.RootAlias(), f.Column))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(root.Table))

	for _, j := range q.Joins() {
		rel := j.Relationship
		fmt.Fprintf(&b, " INNER JOIN %s AS %s ON %s = %s",
			quoteIdent(rel.Target.Table),
			quoteIdent(j.Alias),
			column(j.Alias, rel.RemoteColumn),
			column(j.FromAlias, rel.LocalColumn))
	}

	if filters := q.Filters(); len(filters) > 0 {
		sql, filterParams, err := c.compileAnd(queryir.And{Predicates: filters})
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(sql)
		params = append(params, filterParams...)
	}

	order, err := c.compileOrder(q)
	if err != nil {
		return "", nil, fmt.Errorf("compile order: %w", err)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	return b.String(), params, nil
}

// compileOrder renders the ordering terms followed by the stable key.
func (c *SQLCompiler) compileOrder(q queryir.Query) (string, error) {
	var parts []string
	pk := queryir.Column{Alias: q.RootAlias(), Field: q.Root().PrimaryField()}
	hasPK := false

	for _, e := range q.Ordering() {
		dir := "ASC"
		if d, ok := e.(queryir.Desc); ok {
			e, dir = d.Expr, "DESC"
		}
		sql, err := c.compileExpr(e)
		if err != nil {
			return "", err
		}
		if col, ok := e.(queryir.Column); ok {
			if col == pk {
				hasPK = true
			}
			if col.Field.Type == schema.TypeText {
				sql += " COLLATE BINARY"
			}
		}
		parts = append(parts, sql+" "+dir)
	}

	if !hasPK {
		parts = append(parts, c.stableOrderKey(q))
	}
	return strings.Join(parts, ", "), nil
}

// stableOrderKey returns the tiebreaker term every statement ends with.
func (c *SQLCompiler) stableOrderKey(q queryir.Query) string {
	return column(q.RootAlias(), q.Root().PrimaryField().Column) + " ASC"
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case queryir.Between:
		return c.compileBetween(pred)
	case queryir.In:
		return c.compileIn(pred)
	case queryir.Match:
		return c.compileMatch(pred)
	case queryir.IsNull:
		return c.compileIsNull(pred)
	case queryir.Not:
		return c.compileNot(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileCompare compiles "expr <op> ?". Equality with null becomes IS NULL.
func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	left, err := c.compileExpr(cmp.Left)
	if err != nil {
		return "", nil, err
	}
	if _, isNull := cmp.Value.(ir.Null); isNull {
		if cmp.Op != queryir.OpEq {
			return "", nil, fmt.Errorf("cannot compare %s %s NULL", left, cmp.Op)
		}
		return left + " IS NULL", nil, nil
	}

	param, err := BindValue(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s %s ?", left, cmp.Op), []any{param}, nil
}

func (c *SQLCompiler) compileBetween(bt queryir.Between) (string, []any, error) {
	expr, err := c.compileExpr(bt.Expr)
	if err != nil {
		return "", nil, err
	}
	low, err := BindValue(bt.Low)
	if err != nil {
		return "", nil, fmt.Errorf("convert low bound: %w", err)
	}
	high, err := BindValue(bt.High)
	if err != nil {
		return "", nil, fmt.Errorf("convert high bound: %w", err)
	}
	return expr + " BETWEEN ? AND ?", []any{low, high}, nil
}

// compileIn compiles "expr IN (?, ...)". An empty list matches nothing.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil // Always false
	}
	expr, err := c.compileExpr(in.Expr)
	if err != nil {
		return "", nil, err
	}

	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		if params[i], err = BindValue(v); err != nil {
			return "", nil, fmt.Errorf("convert value [%d]: %w", i, err)
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", expr, placeholders), params, nil
}

// compileMatch compiles a pattern test. Case-sensitive matches use GLOB,
// case-insensitive ones LIKE over lower-cased operands.
func (c *SQLCompiler) compileMatch(m queryir.Match) (string, []any, error) {
	col, err := c.compileExpr(m.Column)
	if err != nil {
		return "", nil, err
	}

	if m.FoldCase {
		pattern := wrapPattern(m.Kind, escapeLike(m.Pattern), "%")
		return fmt.Sprintf(`lower(%s) LIKE lower(?) ESCAPE '\'`, col), []any{pattern}, nil
	}
	pattern := wrapPattern(m.Kind, escapeGlob(m.Pattern), "*")
	return col + " GLOB ?", []any{pattern}, nil
}

func (c *SQLCompiler) compileIsNull(n queryir.IsNull) (string, []any, error) {
	expr, err := c.compileExpr(n.Expr)
	if err != nil {
		return "", nil, err
	}
	if n.Negated {
		return expr + " IS NOT NULL", nil, nil
	}
	return expr + " IS NULL", nil, nil
}

// compileNot negates a predicate. A predicate that evaluates to NULL counts
// as false before negation, so a negated lookup selects exactly the rows
// the plain lookup does not.
func (c *SQLCompiler) compileNot(not queryir.Not) (string, []any, error) {
	sql, params, err := c.compilePredicate(not.Predicate)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("NOT COALESCE(%s, 0)", sql), params, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileExpr renders a value expression.
func (c *SQLCompiler) compileExpr(e queryir.Expr) (string, error) {
	switch expr := e.(type) {
	case queryir.Column:
		return column(expr.Alias, expr.Field.Column), nil
	case queryir.Extract:
		format, ok := strftimeFormats[expr.Part]
		if !ok {
			return "", fmt.Errorf("unsupported date part %q", expr.Part)
		}
		return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)",
			format, column(expr.Column.Alias, expr.Column.Field.Column)), nil
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

var strftimeFormats = map[queryir.DatePart]string{
	queryir.PartYear:  "%Y",
	queryir.PartMonth: "%m",
	queryir.PartDay:   "%d",
}

func wrapPattern(kind queryir.MatchKind, escaped, wildcard string) string {
	switch kind {
	case queryir.MatchContains:
		return wildcard + escaped + wildcard
	case queryir.MatchPrefix:
		return escaped + wildcard
	case queryir.MatchSuffix:
		return wildcard + escaped
	default:
		return escaped
	}
}

var (
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	globEscaper = strings.NewReplacer(`[`, `[[]`, `*`, `[*]`, `?`, `[?]`)
)

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// escapeGlob escapes GLOB wildcards. GLOB has no escape character, so each
// special character becomes a one-character class.
func escapeGlob(s string) string { return globEscaper.Replace(s) }

func column(alias, name string) string {
	return quoteIdent(alias) + "." + quoteIdent(name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BindValue converts an ir.Value to a Go native type for a SQL
// parameter. Lists cannot be bound as a single parameter.
func BindValue(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Float:
		return float64(val), nil
	case ir.Bool:
		return bool(val), nil
	case ir.Time:
		return time.Time(val).UTC().Format(schema.DateTimeLayout), nil
	case ir.Null:
		return nil, nil
	case ir.List:
		return nil, fmt.Errorf("list cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
