// Package queryir provides the persistent query value that lookup
// compilation builds up: a root entity, implicit joins, AND-combined
// predicates and ordering terms.
//
// # Persistence
//
// Query is a value type. Join, Filter, ResetJoinpoint and OrderBy return a
// new Query and never write through the receiver's slices, so callers may
// keep any intermediate Query and branch from it.
//
// # Join points
//
// A Query tracks a join point: the entity that the next attribute name
// resolves against. Join moves it across a relationship, ResetJoinpoint
// moves it back to the root. Joins are keyed by their relationship path
// ("entries", "entries__blog"); repeating a path reuses the existing join.
//
// # Sealed interfaces
//
// Expr and Predicate are sealed with marker methods so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case queryir.Compare:
//	case queryir.Between:
//	case queryir.In:
//	case queryir.Match:
//	case queryir.IsNull:
//	case queryir.Not:
//	case queryir.And:
//	}
//
// Literal values are ir.Value, never raw Go values, so every backend sees
// the same normalized set of types.
package queryir
