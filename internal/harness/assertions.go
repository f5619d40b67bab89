package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/djq/internal/ir"
)

// Assertion types.
const (
	AssertIDs   = "ids"
	AssertCount = "count"
	AssertError = "error"
)

// AssertionError is returned when a case does not meet its expectation.
// It includes the compiled statement to help debug the failure.
type AssertionError struct {
	Case     string // Case name
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Compiled statement, if the query built
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (case %s)\n", e.Type, e.Case)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "  SQL: %s\n", e.SQL)
	}

	return buf.String()
}

// assertCase checks a case result against the case expectation. A case
// without expectations only has to build and run without error.
func assertCase(c Case, r CaseResult) error {
	if c.Expect.Error != "" {
		return assertErrorCode(c, r)
	}

	if r.Error != "" {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertIDs,
			Expected: "query to run",
			Actual:   fmt.Sprintf("error: %s", r.Error),
		}
	}
	if c.Expect.IDs != nil {
		if err := assertIDs(c, r); err != nil {
			return err
		}
	}
	if c.Expect.Count != nil && len(r.IDs) != *c.Expect.Count {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d rows", *c.Expect.Count),
			Actual:   fmt.Sprintf("%d rows", len(r.IDs)),
			SQL:      r.SQL,
		}
	}
	return nil
}

// assertIDs compares primary keys in order. Values are normalized first so
// a YAML 1 matches a stored int64 1.
func assertIDs(c Case, r CaseResult) error {
	want, err := ir.FromGo(c.Expect.IDs)
	if err != nil {
		return fmt.Errorf("case %s: expected ids: %w", c.Name, err)
	}
	got, err := ir.FromGo(r.IDs)
	if err != nil {
		return fmt.Errorf("case %s: returned ids: %w", c.Name, err)
	}

	if !reflect.DeepEqual(want, got) {
		return &AssertionError{
			Case:     c.Name,
			Type:     AssertIDs,
			Expected: formatIDs(c.Expect.IDs),
			Actual:   formatIDs(r.IDs),
			SQL:      r.SQL,
		}
	}
	return nil
}

func assertErrorCode(c Case, r CaseResult) error {
	if r.ErrorCode == c.Expect.Error {
		return nil
	}
	actual := "no error"
	switch {
	case r.ErrorCode != "":
		actual = r.ErrorCode
	case r.Error != "":
		actual = "error without code: " + r.Error
	}
	return &AssertionError{
		Case:     c.Name,
		Type:     AssertError,
		Expected: c.Expect.Error,
		Actual:   actual,
		SQL:      r.SQL,
	}
}

func formatIDs(ids []any) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
