package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/djq/internal/ir"
	"github.com/roach88/djq/internal/querysql"
	"github.com/roach88/djq/internal/schema"
)

// Insert writes one record into the entity's table. Values are coerced to
// their field types first, so a date field accepts time.Time or a
// "2006-01-02" string. Keys that name no field are an error.
func (s *Store) Insert(ctx context.Context, e *schema.Entity, rec Record) error {
	query, args, err := insertStatement(e, rec)
	if err != nil {
		return fmt.Errorf("insert %s: %w", e.Name, err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", e.Name, err)
	}
	return nil
}

// InsertAll writes records in one transaction. Either every record is
// stored or none is.
func (s *Store) InsertAll(ctx context.Context, e *schema.Entity, recs []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert %s: %w", e.Name, err)
	}
	defer tx.Rollback()

	for i, rec := range recs {
		query, args, err := insertStatement(e, rec)
		if err != nil {
			return fmt.Errorf("insert %s [%d]: %w", e.Name, i, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s [%d]: %w", e.Name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert %s: commit: %w", e.Name, err)
	}
	return nil
}

// insertStatement builds the INSERT for rec. Columns follow the sorted
// field names so the statement text is deterministic.
func insertStatement(e *schema.Entity, rec Record) (string, []any, error) {
	names := ir.SortedKeys(rec)
	if len(names) == 0 {
		return "", nil, fmt.Errorf("empty record")
	}

	cols := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		f, ok := e.Field(name)
		if !ok {
			return "", nil, fmt.Errorf("%s has no field %q", e.Name, name)
		}
		v, err := ir.FromGo(rec[name])
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", f, err)
		}
		v, err = f.Coerce(v)
		if err != nil {
			return "", nil, err
		}
		arg, err := querysql.BindValue(v)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", f, err)
		}
		cols = append(cols, quoteIdent(f.Column))
		args = append(args, arg)
	}

	placeholders := slices.Repeat([]string{"?"}, len(cols))
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(e.Table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}
