package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/djq/internal/harness"
	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/lookup"
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema   string   // CUE schema directory
	Entity   string   // root entity
	Filters  []string // key=value lookups
	Excludes []string // key=value lookups, negated
	Order    []string // ordering terms
}

// CompiledQuery is the compile command's result.
type CompiledQuery struct {
	Entity      string
	SQL         string
	Params      []any
	Warnings    []string
	StatementID string // content address of SQL and Params
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile lookups to SQL",
		Long: `Compile filter, exclude and order lookups against a CUE schema and
print the SQLite statement with its parameters.

Lookup values are parsed as YAML, so numbers, booleans, null and flow
sequences work as expected. An empty value is null.

Examples:
  djq compile --schema ./schema --entity Entry --exclude pub_date__year=2010 --order=-blog__name --order id
  djq compile --schema ./schema --entity Entry --filter 'id__in=[1, 2]'
  djq compile --schema ./schema --entity Blog --filter entries__headline__iendswith=lennon --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema directory (required)")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "root entity (required)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "filter lookup key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Excludes, "exclude", nil, "exclude lookup key=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Order, "order", nil, "ordering term, '-' prefix for descending (repeatable)")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	s, err := LoadSchema(opts.Schema)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Location()+loadErr.Message, nil)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d entities from %s", len(s.Entities()), opts.Schema)

	entity, ok := s.Entity(opts.Entity)
	if !ok {
		return outputCommandError(formatter, ErrCodeUnknownEntity,
			fmt.Sprintf("unknown entity %q", opts.Entity), nil)
	}

	steps, err := compileSteps(opts)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadFlag, err.Error(), nil)
	}

	q, err := harness.BuildQuery(queryir.New(entity), steps)
	if err != nil {
		return outputLookupError(formatter, err)
	}
	formatter.VerboseLog("Resolved %d filter(s), %d join(s), %d ordering term(s)",
		len(q.Filters()), len(q.Joins()), len(q.Ordering()))

	sql, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	id, err := ir.StatementID(sql, params)
	if err != nil {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Statement %s", id)

	return outputCompileSuccess(formatter, CompiledQuery{
		Entity:      entity.Name,
		SQL:         sql,
		Params:      params,
		Warnings:    queryir.Validate(q).Warnings,
		StatementID: id,
	})
}

// compileSteps turns the lookup flags into query steps: one filter call,
// one exclude call, then one order call.
func compileSteps(opts *CompileOptions) ([]harness.Step, error) {
	var steps []harness.Step
	if len(opts.Filters) > 0 {
		lookups, err := parseLookups(opts.Filters)
		if err != nil {
			return nil, fmt.Errorf("--filter: %w", err)
		}
		steps = append(steps, harness.Step{Filter: lookups})
	}
	if len(opts.Excludes) > 0 {
		lookups, err := parseLookups(opts.Excludes)
		if err != nil {
			return nil, fmt.Errorf("--exclude: %w", err)
		}
		steps = append(steps, harness.Step{Exclude: lookups})
	}
	if len(opts.Order) > 0 {
		steps = append(steps, harness.Step{Order: opts.Order})
	}
	return steps, nil
}

// parseLookups decodes key=value pairs. Values are YAML so "2010" is an
// integer and "[1, 2]" a list.
func parseLookups(pairs []string) (map[string]any, error) {
	lookups := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		if _, dup := lookups[key]; dup {
			return nil, fmt.Errorf("lookup %q given more than once", key)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("value for %s: %w", key, err)
		}
		lookups[key] = value
	}
	return lookups, nil
}

func outputCompileSuccess(formatter *OutputFormatter, result CompiledQuery) error {
	if formatter.Format == "json" {
		params := make([]any, len(result.Params))
		copy(params, result.Params)
		warnings := make([]any, len(result.Warnings))
		for i, w := range result.Warnings {
			warnings[i] = w
		}
		return formatter.Canonical(map[string]any{
			"entity":       result.Entity,
			"sql":          result.SQL,
			"params":       params,
			"warnings":     warnings,
			"statement_id": result.StatementID,
		})
	}

	// Human-readable text output
	w := formatter.Writer
	fmt.Fprintln(w, result.SQL)
	if len(result.Params) > 0 {
		fmt.Fprintf(w, "Params: %s\n", formatParams(result.Params))
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	return nil
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case nil:
			parts[i] = "NULL"
		case string:
			parts[i] = fmt.Sprintf("%q", v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// outputLookupError reports a lookup that did not resolve. The error code
// is the resolution code, such as UNKNOWN_OPERATOR.
func outputLookupError(formatter *OutputFormatter, err error) error {
	var re *lookup.ResolutionError
	if !errors.As(err, &re) {
		return outputCommandError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	details := map[string]string{"path": re.Path, "entity": re.Entity}
	if re.Token != "" {
		details["token"] = re.Token
	}
	_ = formatter.Error(string(re.Code), re.Error(), details)
	return WrapExitError(ExitFailure, "lookup failed", err)
}

// outputCommandError outputs a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
