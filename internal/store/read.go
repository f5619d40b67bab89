package store

import (
	"context"
	"fmt"

	"github.com/roach88/djq/internal/queryir"
)

// Fetch compiles q and returns the matching root records in query order.
//
// A join across a one-to-many relationship can return the same root row
// more than once; Fetch keeps only the first occurrence of each primary
// key, so every entity appears at most once.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Fetch(ctx context.Context, q queryir.Query) ([]Record, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.Root().Name, err)
	}
	defer rows.Close()

	fields := q.Root().Fields()
	pk := q.Root().PrimaryKey
	seen := make(map[any]struct{})
	records := []Record{}

	for rows.Next() {
		raw := make([]any, len(fields))
		ptrs := make([]any, len(fields))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Root().Name, err)
		}

		rec := make(Record, len(fields))
		for i, f := range fields {
			v, err := decodeColumn(f, raw[i])
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", q.Root().Name, err)
			}
			rec[f.Name] = v
		}

		if _, dup := seen[rec[pk]]; dup {
			continue
		}
		seen[rec[pk]] = struct{}{}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Root().Name, err)
	}
	return records, nil
}

// FetchIDs is Fetch reduced to primary key values.
func (s *Store) FetchIDs(ctx context.Context, q queryir.Query) ([]any, error) {
	records, err := s.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(records))
	for i, rec := range records {
		ids[i] = rec.ID(q.Root())
	}
	return ids, nil
}
