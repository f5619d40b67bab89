package lookup

import (
	"slices"
	"strings"
)

// Delimiter separates the tokens of a lookup path.
const Delimiter = "__"

// Direction is the sort direction of an order path.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Path is a tokenized lookup key. The zero Path has no tokens.
type Path struct {
	key       string
	tokens    []string
	direction Direction
}

// ParsePath splits a filter key into tokens. Empty tokens are kept (and fail
// resolution later) so that "name____exact" is not silently read as
// "name__exact".
func ParsePath(key string) Path {
	p := Path{key: key}
	if key != "" {
		p.tokens = strings.Split(key, Delimiter)
	}
	return p
}

// ParseOrderPath strips an optional leading "+" or "-" sign, records the
// direction it selects, and tokenizes the rest.
func ParseOrderPath(s string) Path {
	dir := Ascending
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			dir = Descending
		}
		s = s[1:]
	}
	p := ParsePath(s)
	p.direction = dir
	return p
}

// Key returns the path text without any direction sign.
func (p Path) Key() string { return p.key }

// Tokens returns a copy of the tokens.
func (p Path) Tokens() []string { return slices.Clone(p.tokens) }

// Len returns the number of tokens.
func (p Path) Len() int { return len(p.tokens) }

// Direction returns the sort direction; filter paths are always Ascending.
func (p Path) Direction() Direction { return p.direction }

func (p Path) String() string {
	if p.direction == Descending {
		return "-" + p.key
	}
	return p.key
}
