package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogSchema(t *testing.T) {
	s := BlogSchema(t)
	blog := MustEntity(t, s, "Blog")
	entry := MustEntity(t, s, "Entry")

	_, ok := blog.Attribute("entries")
	assert.True(t, ok)
	_, ok = entry.Attribute("blog")
	assert.True(t, ok)
}

func TestBlogFixturesShape(t *testing.T) {
	fixtures := BlogFixtures()
	require.Len(t, fixtures, 2)
	assert.Equal(t, "Blog", fixtures[0].Entity, "parents load before children")
	assert.Len(t, fixtures[0].Rows, 2)
	assert.Len(t, fixtures[1].Rows, 6)
}
