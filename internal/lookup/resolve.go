package lookup

import (
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/schema"
)

// JoinRequest records a relationship joined while resolving a path. Hop is
// its position along that path, so requests can be replayed from the root.
type JoinRequest struct {
	Relationship *schema.Relationship
	Hop          int
}

// resolution is the outcome of walking a path up to its first scalar field.
type resolution struct {
	query queryir.Query // join point at the field's entity
	field *schema.Field
	rest  []string // tokens after the field
	joins []JoinRequest
}

// resolveAttribute looks a token up on the join point entity.
func resolveAttribute(q queryir.Query, p Path, token string) (schema.Descriptor, error) {
	entity := q.Joinpoint().Entity
	d, ok := entity.Attribute(token)
	if !ok {
		return nil, newUnresolvable(p, token, entity.Name)
	}
	return d, nil
}

// planJoin joins rel from the current join point and records the request.
func planJoin(q queryir.Query, p Path, rel *schema.Relationship, joins []JoinRequest) (queryir.Query, []JoinRequest, error) {
	hop := 0
	if n := len(joins); n > 0 {
		hop = joins[n-1].Hop + 1
	}
	next, err := q.Join(rel)
	if err != nil {
		return q, joins, &ResolutionError{
			Code:    ErrCodeUnresolvable,
			Message: "cannot join " + rel.String(),
			Path:    p.String(),
			Token:   rel.Name,
			Entity:  q.Joinpoint().Entity.Name,
			Err:     err,
		}
	}
	return next, append(joins, JoinRequest{Relationship: rel, Hop: hop}), nil
}

// walk resolves tokens from the root until one names a scalar field. Every
// relationship on the way is joined. A path that runs out of tokens on a
// relationship is an ambiguous terminal.
func walk(q queryir.Query, p Path, ordering bool) (resolution, error) {
	q = q.ResetJoinpoint()
	tokens := p.Tokens()
	if len(tokens) == 0 {
		return resolution{}, newUnresolvable(p, "", q.Root().Name)
	}

	var joins []JoinRequest
	for i, token := range tokens {
		desc, err := resolveAttribute(q, p, token)
		if err != nil {
			return resolution{}, err
		}

		switch d := desc.(type) {
		case *schema.Field:
			return resolution{query: q, field: d, rest: tokens[i+1:], joins: joins}, nil
		case *schema.Relationship:
			q, joins, err = planJoin(q, p, d, joins)
			if err != nil {
				return resolution{}, err
			}
		}
	}

	last := joins[len(joins)-1].Relationship
	return resolution{}, newAmbiguousTerminal(p, last.String(), last.Entity.Name, ordering)
}

// column references the resolved field through its join alias.
func (r resolution) column() queryir.Column {
	col, _ := r.query.Column(r.field)
	return col
}
