package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/djq/internal/schema"
)

// createTestSchema writes a minimal CUE schema package and returns its
// directory.
func createTestSchema(t *testing.T, dir string) string {
	t.Helper()
	schemaDir := filepath.Join(dir, "schema")
	require.NoError(t, os.MkdirAll(schemaDir, 0755))
	src := `package blog

entity: Blog: fields: {
	id:   "integer"
	name: "text"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(schemaDir, "blog.cue"), []byte(src), 0644))
	return schemaDir
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	createTestSchema(t, dir)

	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
schema: schema
fixtures:
  - entity: Blog
    rows:
      - { id: 1, name: blog1 }
cases:
  - name: by_name
    entity: Blog
    steps:
      - filter: { name__startswith: blog }
      - order: [-id]
    expect:
      ids: [1]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "schema"), scenario.Schema)
	require.Len(t, scenario.Fixtures, 1)
	assert.Equal(t, "blog1", scenario.Fixtures[0].Rows[0]["name"])
	require.Len(t, scenario.Cases, 1)

	c := scenario.Cases[0]
	assert.Equal(t, "Blog", c.Entity)
	require.Len(t, c.Steps, 2)
	assert.Equal(t, StepFilter, c.Steps[0].Kind())
	assert.Equal(t, "blog", c.Steps[0].Filter["name__startswith"])
	assert.Equal(t, StepOrder, c.Steps[1].Kind())
	assert.Equal(t, []string{"-id"}, c.Steps[1].Order)
	assert.Equal(t, []any{1}, c.Expect.IDs)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_RepositoryScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, scenario.Cases)
		})
	}
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
entities: []
case:
  - name: c
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_InlineEntities(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: inline
description: d
entities:
  - name: Tag
    table: tags
    fields:
      - { name: id, type: integer }
      - { name: label, type: text, nullable: true }
cases:
  - name: all
    entity: Tag
    expect:
      count: 0
`))
	require.NoError(t, err)
	require.Len(t, scenario.Entities, 1)
	assert.Equal(t, "tags", scenario.Entities[0].Table)
	assert.True(t, scenario.Entities[0].Fields[1].Nullable)
	require.NoError(t, validateScenario(scenario))
	require.NotNil(t, scenario.Cases[0].Expect.Count)
	assert.Equal(t, 0, *scenario.Cases[0].Expect.Count)
}

func TestValidateScenario(t *testing.T) {
	dir := t.TempDir()
	schemaDir := createTestSchema(t, dir)
	notDir := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(notDir, nil, 0644))

	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Schema:      schemaDir,
			Cases:       []Case{{Name: "c", Entity: "Blog"}},
		}
	}
	negative := -1

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		errMsg string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no schema", func(s *Scenario) { s.Schema = "" }, "one of schema or entities is required"},
		{"schema and entities", func(s *Scenario) {
			s.Entities = []schema.EntityDef{{Name: "Blog"}}
		}, "mutually exclusive"},
		{"schema not found", func(s *Scenario) { s.Schema = filepath.Join(dir, "nope") }, "schema directory not found"},
		{"schema not a directory", func(s *Scenario) { s.Schema = notDir }, "not a directory"},
		{"fixture entity", func(s *Scenario) { s.Fixtures = []Fixture{{}} }, "fixtures[0]: entity is required"},
		{"no cases", func(s *Scenario) { s.Cases = nil }, "cases list is required"},
		{"case name", func(s *Scenario) { s.Cases[0].Name = "" }, "cases[0]: name is required"},
		{"case entity", func(s *Scenario) { s.Cases[0].Entity = "" }, "cases[0]: entity is required"},
		{"duplicate case", func(s *Scenario) {
			s.Cases = append(s.Cases, Case{Name: "c", Entity: "Blog"})
		}, `cases[1]: duplicate case name "c"`},
		{"empty step", func(s *Scenario) { s.Cases[0].Steps = []Step{{}} }, "exactly one of filter, exclude or order"},
		{"two calls in a step", func(s *Scenario) {
			s.Cases[0].Steps = []Step{{Filter: map[string]any{"id": 1}, Order: []string{"id"}}}
		}, "exactly one of filter, exclude or order"},
		{"error with ids", func(s *Scenario) {
			s.Cases[0].Expect = Expect{Error: "UNKNOWN_OPERATOR", IDs: []any{1}}
		}, "error cannot be combined"},
		{"negative count", func(s *Scenario) { s.Cases[0].Expect.Count = &negative }, "count must be non-negative"},
	}

	require.NoError(t, validateScenario(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestStepKind(t *testing.T) {
	assert.Equal(t, StepFilter, Step{Filter: map[string]any{}}.Kind())
	assert.Equal(t, StepExclude, Step{Exclude: map[string]any{"id": 1}}.Kind())
	assert.Equal(t, StepOrder, Step{Order: []string{}}.Kind())
	assert.Equal(t, "", Step{}.Kind())
}
