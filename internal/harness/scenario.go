package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/djq/internal/schema"
)

// Scenario defines a lookup conformance scenario: a schema, the rows to
// load, and query cases with their expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a directory holding a CUE schema package. Relative paths
	// are resolved against the scenario file location.
	Schema string `yaml:"schema,omitempty"`

	// Entities declares the schema inline instead of through CUE. Exactly
	// one of Schema and Entities must be set.
	Entities []schema.EntityDef `yaml:"entities,omitempty"`

	// Fixtures are inserted in order before any case runs.
	Fixtures []Fixture `yaml:"fixtures,omitempty"`

	// Cases are the queries to run.
	Cases []Case `yaml:"cases"`
}

// Fixture is a batch of rows for one entity.
type Fixture struct {
	Entity string           `yaml:"entity"`
	Rows   []map[string]any `yaml:"rows"`
}

// Case is one query built from a root entity by a sequence of steps.
type Case struct {
	// Name identifies the case within its scenario.
	Name string `yaml:"name"`

	// Entity is the root entity of the query.
	Entity string `yaml:"entity"`

	// Steps are applied in order, each as its own filter, exclude or order
	// call.
	Steps []Step `yaml:"steps"`

	// Expect is the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Step is one query-building call. Exactly one field must be set.
type Step struct {
	Filter  map[string]any `yaml:"filter,omitempty"`
	Exclude map[string]any `yaml:"exclude,omitempty"`
	Order   []string       `yaml:"order,omitempty"`
}

// Kind names the call the step makes.
func (s Step) Kind() string {
	switch {
	case s.Filter != nil:
		return StepFilter
	case s.Exclude != nil:
		return StepExclude
	case s.Order != nil:
		return StepOrder
	default:
		return ""
	}
}

// Step kinds.
const (
	StepFilter  = "filter"
	StepExclude = "exclude"
	StepOrder   = "order"
)

// Expect specifies the expected outcome of a case. IDs and Count apply to
// cases that compile; Error to cases that must fail.
type Expect struct {
	// IDs are the primary keys of the returned rows, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Count is the expected number of returned rows.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected resolution error code, such as
	// "UNKNOWN_OPERATOR".
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative schema
// path is resolved against the directory of the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the schema path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the schema path BEFORE validation
	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) && basePath != "" {
		scenario.Schema = filepath.Join(basePath, scenario.Schema)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Schema == "" && len(s.Entities) == 0:
		return fmt.Errorf("one of schema or entities is required")
	case s.Schema != "" && len(s.Entities) > 0:
		return fmt.Errorf("schema and entities are mutually exclusive")
	}

	if s.Schema != "" {
		info, err := os.Stat(s.Schema)
		if os.IsNotExist(err) {
			return fmt.Errorf("schema directory not found: %s", s.Schema)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("schema path is not a directory: %s", s.Schema)
		}
	}

	for i, fx := range s.Fixtures {
		if fx.Entity == "" {
			return fmt.Errorf("fixtures[%d]: entity is required", i)
		}
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if err := validateCase(i, &c); err != nil {
			return err
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true
	}

	return nil
}

// validateCase validates a single case and its steps.
func validateCase(index int, c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if c.Entity == "" {
		return fmt.Errorf("cases[%d]: entity is required", index)
	}

	for j, step := range c.Steps {
		set := 0
		if step.Filter != nil {
			set++
		}
		if step.Exclude != nil {
			set++
		}
		if step.Order != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("cases[%d].steps[%d]: exactly one of filter, exclude or order is required", index, j)
		}
	}

	if c.Expect.Error != "" && (c.Expect.IDs != nil || c.Expect.Count != nil) {
		return fmt.Errorf("cases[%d].expect: error cannot be combined with ids or count", index)
	}
	if c.Expect.Count != nil && *c.Expect.Count < 0 {
		return fmt.Errorf("cases[%d].expect: count must be non-negative", index)
	}
	return nil
}
