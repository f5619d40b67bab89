package queryir

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/djq/internal/schema"
)

// PathSeparator joins relationship names into a join path.
const PathSeparator = "__"

// JoinPoint is the entity the next attribute name resolves against, with
// the alias its columns are read through.
type JoinPoint struct {
	Entity *schema.Entity
	Alias  string
	Path   string // relationship path from the root, "" at the root
}

// IsRoot reports whether the join point is the query's root entity.
func (jp JoinPoint) IsRoot() bool { return jp.Path == "" }

// Join is an inner join of Relationship, read from FromAlias and exposed as
// Alias.
type Join struct {
	Relationship *schema.Relationship
	FromAlias    string
	Alias        string
	Path         string
}

// Query is a persistent query value over one root entity.
//
// Every method returns a new Query and leaves the receiver untouched, so a
// Query can be kept and reused as the starting point of several
// compositions:
//
//	base := queryir.New(entry)
//	recent := base.Filter(p1)
//	old := base.Filter(p2) // base is unchanged by either call
//
// Joins are identified by their relationship path from the root. Joining a
// path that is already joined only moves the join point, so joins appear
// once each, in first-discovery order.
type Query struct {
	root      *schema.Entity
	joins     []Join
	joinpoint JoinPoint
	filters   []Predicate
	order     []Expr
}

// New starts a query over root.
func New(root *schema.Entity) Query {
	return Query{
		root:      root,
		joinpoint: JoinPoint{Entity: root, Alias: root.Table},
	}
}

// Root returns the entity whose rows the query selects.
func (q Query) Root() *schema.Entity { return q.root }

// RootAlias returns the alias of the root table.
func (q Query) RootAlias() string { return q.root.Table }

// Joinpoint returns the current join point.
func (q Query) Joinpoint() JoinPoint { return q.joinpoint }

// Joins returns the joins in the order they were added.
func (q Query) Joins() []Join { return slices.Clone(q.joins) }

// Filters returns the predicates, implicitly AND-combined.
func (q Query) Filters() []Predicate { return slices.Clone(q.filters) }

// Ordering returns the ordering terms.
func (q Query) Ordering() []Expr { return slices.Clone(q.order) }

// Column references a field of the join point entity.
func (q Query) Column(f *schema.Field) (Column, error) {
	if f.Entity != q.joinpoint.Entity {
		return Column{}, fmt.Errorf("field %s does not belong to join point %s", f, q.joinpoint.Entity.Name)
	}
	return Column{Alias: q.joinpoint.Alias, Field: f}, nil
}

// Join joins rel from the current join point and moves the join point to
// rel.Target.
func (q Query) Join(rel *schema.Relationship) (Query, error) {
	if rel.Entity != q.joinpoint.Entity {
		return q, fmt.Errorf("cannot join %s from %s", rel, q.joinpoint.Entity.Name)
	}

	path := rel.Name
	if !q.joinpoint.IsRoot() {
		path = q.joinpoint.Path + PathSeparator + rel.Name
	}

	if existing, ok := q.joinByPath(path); ok {
		q.joinpoint = JoinPoint{Entity: rel.Target, Alias: existing.Alias, Path: path}
		return q, nil
	}

	j := Join{
		Relationship: rel,
		FromAlias:    q.joinpoint.Alias,
		Alias:        q.uniqueAlias(path),
		Path:         path,
	}
	q.joins = append(slices.Clip(q.joins), j)
	q.joinpoint = JoinPoint{Entity: rel.Target, Alias: j.Alias, Path: path}
	return q, nil
}

// ResetJoinpoint moves the join point back to the root entity.
func (q Query) ResetJoinpoint() Query {
	q.joinpoint = JoinPoint{Entity: q.root, Alias: q.RootAlias()}
	return q
}

// Filter adds a predicate. Successive filters AND-combine.
func (q Query) Filter(p Predicate) Query {
	q.filters = append(slices.Clip(q.filters), p)
	return q
}

// OrderBy appends ordering terms after any existing ones.
func (q Query) OrderBy(exprs ...Expr) Query {
	q.order = append(slices.Clip(q.order), exprs...)
	return q
}

// AliasEntity returns the entity read through alias.
func (q Query) AliasEntity(alias string) (*schema.Entity, bool) {
	if alias == q.RootAlias() {
		return q.root, true
	}
	for _, j := range q.joins {
		if j.Alias == alias {
			return j.Relationship.Target, true
		}
	}
	return nil, false
}

func (q Query) joinByPath(path string) (Join, bool) {
	for _, j := range q.joins {
		if j.Path == path {
			return j, true
		}
	}
	return Join{}, false
}

// uniqueAlias uses the join path as alias unless it collides with the root
// table or an earlier alias.
func (q Query) uniqueAlias(path string) string {
	alias := path
	for n := 2; ; n++ {
		if _, taken := q.AliasEntity(alias); !taken {
			return alias
		}
		alias = path + "_" + strconv.Itoa(n)
	}
}
