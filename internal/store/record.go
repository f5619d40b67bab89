package store

import (
	"fmt"
	"time"

	"github.com/roach88/djq/internal/schema"
)

// Record is one entity row keyed by field name. Values read back from the
// store are int64, float64, string, bool, time.Time or nil according to
// the field type.
type Record map[string]any

// ID returns the record's primary key value.
func (r Record) ID(e *schema.Entity) any {
	return r[e.PrimaryKey]
}

// decodeColumn converts a scanned column to the Go type of its field. The
// driver already returns time.Time for DATE/DATETIME columns and bool for
// BOOLEAN ones; text forms are accepted as well.
func decodeColumn(f *schema.Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch f.Type {
	case schema.TypeInteger:
		if n, ok := raw.(int64); ok {
			return n, nil
		}
	case schema.TypeReal:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int64:
			return float64(v), nil
		}
	case schema.TypeText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case schema.TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		}
	case schema.TypeDate, schema.TypeDateTime:
		switch v := raw.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			return parseStoredTime(f.Type, v)
		case []byte:
			return parseStoredTime(f.Type, string(v))
		}
	}
	return nil, fmt.Errorf("%s: unexpected %T in %s column", f, raw, f.Type)
}

func parseStoredTime(t schema.FieldType, s string) (time.Time, error) {
	layout := schema.DateLayout
	if t == schema.TypeDateTime {
		layout = schema.DateTimeLayout
	}
	return time.Parse(layout, s)
}
