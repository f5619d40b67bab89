package schema

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/djq/internal/ir"
)

// Storage layouts for temporal values. Dates and datetimes are stored as
// text so that SQLite's date functions and lexical ordering both work.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Coerce converts a scalar value to the representation stored in the
// field's column. Null passes through unchanged; lists are rejected.
func (f *Field) Coerce(v ir.Value) (ir.Value, error) {
	if _, isNull := v.(ir.Null); isNull || v == nil {
		return ir.Null{}, nil
	}
	if _, isList := v.(ir.List); isList {
		return nil, fmt.Errorf("%s: expected a single %s value, got a list", f, f.Type)
	}

	out, err := CoerceTo(f.Type, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f, err)
	}
	return out, nil
}

// CoerceTo converts a non-null scalar value to a field type's storage form.
func CoerceTo(t FieldType, v ir.Value) (ir.Value, error) {
	switch t {
	case TypeInteger:
		return toInt(v)
	case TypeReal:
		return toFloat(v)
	case TypeText:
		return toText(v)
	case TypeBoolean:
		return toBool(v)
	case TypeDate:
		tm, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return ir.String(tm.Format(DateLayout)), nil
	case TypeDateTime:
		tm, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return ir.String(tm.UTC().Format(DateTimeLayout)), nil
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}

func toInt(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Int:
		return val, nil
	case ir.Float:
		f := float64(val)
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("%v is not an integer", f)
		}
		return ir.Int(int64(f)), nil
	case ir.String:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", string(val))
		}
		return ir.Int(n), nil
	case ir.Bool:
		if val {
			return ir.Int(1), nil
		}
		return ir.Int(0), nil
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

func toFloat(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Float:
		return val, nil
	case ir.Int:
		return ir.Float(float64(val)), nil
	case ir.String:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", string(val))
		}
		return ir.Float(f), nil
	}
	return nil, fmt.Errorf("cannot use %T as real", v)
}

func toText(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.String:
		return val, nil
	case ir.Int:
		return ir.String(strconv.FormatInt(int64(val), 10)), nil
	case ir.Float:
		return ir.String(strconv.FormatFloat(float64(val), 'g', -1, 64)), nil
	case ir.Bool:
		return ir.String(strconv.FormatBool(bool(val))), nil
	}
	return nil, fmt.Errorf("cannot use %T as text", v)
}

func toBool(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Bool:
		return val, nil
	case ir.Int:
		if val == 0 || val == 1 {
			return ir.Bool(val == 1), nil
		}
		return nil, fmt.Errorf("%d is not a boolean", int64(val))
	case ir.String:
		b, err := strconv.ParseBool(string(val))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", string(val))
		}
		return ir.Bool(b), nil
	}
	return nil, fmt.Errorf("cannot use %T as boolean", v)
}

// toTime accepts time values and strings in date, datetime or RFC 3339
// layout.
func toTime(v ir.Value) (time.Time, error) {
	switch val := v.(type) {
	case ir.Time:
		return time.Time(val), nil
	case ir.String:
		s := string(val)
		for _, layout := range []string{DateLayout, DateTimeLayout, time.RFC3339Nano} {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a date (want %s or RFC 3339)", s, DateLayout)
	}
	return time.Time{}, fmt.Errorf("cannot use %T as date", v)
}
