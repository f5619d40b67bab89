package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		key    string
		tokens []string
	}{
		{"name", []string{"name"}},
		{"name__exact", []string{"name", "exact"}},
		{"entries__pub_date__range", []string{"entries", "pub_date", "range"}},
		{"name____exact", []string{"name", "", "exact"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p := ParsePath(tt.key)
			assert.Equal(t, tt.tokens, p.Tokens())
			assert.Equal(t, len(tt.tokens), p.Len())
			assert.Equal(t, Ascending, p.Direction())
			assert.Equal(t, tt.key, p.Key())
		})
	}
}

func TestParseOrderPath(t *testing.T) {
	tests := []struct {
		input  string
		key    string
		dir    Direction
		tokens []string
	}{
		{"name", "name", Ascending, []string{"name"}},
		{"+name", "name", Ascending, []string{"name"}},
		{"-blog__name", "blog__name", Descending, []string{"blog", "name"}},
		{"-", "", Descending, nil},
		{"", "", Ascending, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := ParseOrderPath(tt.input)
			assert.Equal(t, tt.key, p.Key())
			assert.Equal(t, tt.dir, p.Direction())
			assert.Equal(t, tt.tokens, p.Tokens())
		})
	}
}

func TestPathTokensAreCopied(t *testing.T) {
	p := ParsePath("blog__name")
	tokens := p.Tokens()
	tokens[0] = "changed"
	assert.Equal(t, []string{"blog", "name"}, p.Tokens())
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "-blog__name", ParseOrderPath("-blog__name").String())
	assert.Equal(t, "blog__name", ParseOrderPath("+blog__name").String())
	assert.Equal(t, "desc", Descending.String())
	assert.Equal(t, "asc", Ascending.String())
}
