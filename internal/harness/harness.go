package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/djq/internal/lookup"
	"github.com/roach88/djq/internal/queryir"
	"github.com/roach88/djq/internal/querysql"
	"github.com/roach88/djq/internal/schema"
	"github.com/roach88/djq/internal/store"
)

// Harness is the scenario execution engine. It owns a fresh store per
// scenario run.
type Harness struct {
	store    *store.Store
	schema   *schema.Schema
	compiler *querysql.SQLCompiler
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sends progress logs to logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Build the schema from CUE or the inline entities
// 2. Create one table per entity
// 3. Insert fixtures in order
// 4. Build, compile and fetch each case, checking its expectation
//
// A returned error means the scenario itself could not run; failed
// expectations are reported in Result.Errors instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	sch, err := loadSchema(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		schema:   sch,
		compiler: querysql.NewSQLCompiler(),
		logger:   o.logger.With("scenario", scenario.Name),
	}

	ctx := context.Background()
	if err := st.CreateTables(ctx, sch); err != nil {
		return nil, err
	}
	if err := h.loadFixtures(ctx, scenario.Fixtures); err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		cr, err := h.runCase(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		result.AddCase(cr)

		if err := assertCase(c, cr); err != nil {
			result.AddError(err.Error())
			h.logger.Info("case failed", "case", c.Name, "error", err)
			continue
		}
		h.logger.Info("case passed", "case", c.Name, "rows", len(cr.IDs), "error_code", cr.ErrorCode)
	}

	return result, nil
}

func loadSchema(scenario *Scenario) (*schema.Schema, error) {
	if scenario.Schema != "" {
		return schema.LoadCUE(scenario.Schema)
	}
	return schema.Build(schema.Definition{Entities: scenario.Entities})
}

// loadFixtures inserts each fixture batch in one transaction.
func (h *Harness) loadFixtures(ctx context.Context, fixtures []Fixture) error {
	for i, fx := range fixtures {
		e, ok := h.schema.Entity(fx.Entity)
		if !ok {
			return fmt.Errorf("fixtures[%d]: unknown entity %q", i, fx.Entity)
		}
		recs := make([]store.Record, len(fx.Rows))
		for j, row := range fx.Rows {
			recs[j] = store.Record(row)
		}
		if err := h.store.InsertAll(ctx, e, recs); err != nil {
			return fmt.Errorf("fixtures[%d]: %w", i, err)
		}
		h.logger.Debug("fixtures loaded", "entity", e.Name, "rows", len(recs))
	}
	return nil
}

// runCase builds the case query and evaluates it. Resolution and fetch
// errors are part of the case result; only an unknown root entity is a
// scenario error.
func (h *Harness) runCase(ctx context.Context, c Case) (CaseResult, error) {
	e, ok := h.schema.Entity(c.Entity)
	if !ok {
		return CaseResult{}, fmt.Errorf("unknown entity %q", c.Entity)
	}
	cr := CaseResult{Name: c.Name, Entity: e.Name}

	q, err := BuildQuery(queryir.New(e), c.Steps)
	if err != nil {
		cr.setError(err)
		return cr, nil
	}
	cr.Warnings = queryir.Validate(q).Warnings

	cr.SQL, cr.Params, err = h.compiler.Compile(q)
	if err != nil {
		cr.setError(err)
		return cr, nil
	}
	h.logger.Debug("case compiled", "case", c.Name, "sql", cr.SQL, "params", cr.Params)

	ids, err := h.store.FetchIDs(ctx, q)
	if err != nil {
		cr.setError(err)
		return cr, nil
	}
	cr.IDs = ids
	return cr, nil
}

// BuildQuery applies steps to q in order.
func BuildQuery(q queryir.Query, steps []Step) (queryir.Query, error) {
	b := lookup.From(q)
	for _, step := range steps {
		switch step.Kind() {
		case StepFilter:
			b = b.FilterBy(lookup.Lookups(step.Filter))
		case StepExclude:
			b = b.ExcludeBy(lookup.Lookups(step.Exclude))
		case StepOrder:
			terms := make([]any, len(step.Order))
			for i, term := range step.Order {
				terms[i] = term
			}
			b = b.OrderBy(terms...)
		}
	}
	return b.Query()
}

func (cr *CaseResult) setError(err error) {
	cr.Error = err.Error()
	var re *lookup.ResolutionError
	if errors.As(err, &re) {
		cr.ErrorCode = string(re.Code)
	}
}
