package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/djq/internal/schema"
)

// CreateTables creates one table per entity of s, in declaration order.
//
// Tables already created from the same definition are left alone, so
// calling CreateTables twice is safe. A table recorded with different DDL
// is an error.
func (s *Store) CreateTables(ctx context.Context, sch *schema.Schema) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	defer tx.Rollback()

	for _, e := range sch.Entities() {
		ddl := TableDDL(e)

		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT ddl FROM djq_tables WHERE entity = ?`, e.Name).Scan(&existing)
		switch {
		case err == nil:
			if existing != ddl {
				return fmt.Errorf("create tables: table %q for %s exists with a different definition", e.Table, e.Name)
			}
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("create tables: read catalog: %w", err)
		}

		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create tables: %s: %w", e.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO djq_tables (entity, table_name, ddl, seq)
			VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM djq_tables))
		`, e.Name, e.Table, ddl); err != nil {
			return fmt.Errorf("create tables: record %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create tables: commit: %w", err)
	}
	return nil
}

// Tables returns the entity names recorded in the catalog, in creation
// order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity FROM djq_tables ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return names, nil
}

// TableDDL renders the CREATE TABLE statement for an entity:
//
//	CREATE TABLE "entry" ("id" INTEGER NOT NULL PRIMARY KEY, "pub_date" DATE, ...)
func TableDDL(e *schema.Entity) string {
	var cols []string
	for _, f := range e.Fields() {
		col := quoteIdent(f.Column) + " " + f.Type.SQLType()
		if !f.Nullable {
			col += " NOT NULL"
		}
		if f.Name == e.PrimaryKey {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(e.Table), strings.Join(cols, ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
