package ir

import (
	"fmt"
	"reflect"
	"slices"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface over the literal values a lookup can carry.
// Only Null, String, Int, Float, Bool, Time and List implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is the absent value. It compares with IS NULL, never with =.
type Null struct{}

func (Null) irValue() {}

// String is a text value.
type String string

func (String) irValue() {}

// Int is an integer value. All Go integer kinds normalize to Int.
type Int int64

func (Int) irValue() {}

// Float is a real value.
type Float float64

func (Float) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// Time is a date or timestamp value. How it is rendered depends on the
// field it is compared against (date fields keep only the calendar day).
type Time time.Time

func (Time) irValue() {}

// List is an ordered collection, used by the in and range operators.
type List []Value

func (List) irValue() {}

// FromGo converts a Go value into a Value.
//
// Supported inputs: nil, Value, string, bool, every integer and float kind,
// time.Time, and slices or arrays of any of these. Maps and structs are
// rejected since no lookup operator can compare against them.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Time(val), nil
	case []byte:
		return String(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return nil, fmt.Errorf("unsigned value %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List{}, nil
		}
		list := make(List, rv.Len())
		for i := range list {
			elem, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = elem
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// IsCollection reports whether a Go value is a slice or array that FromGo
// would turn into a List. Byte slices count as strings.
func IsCollection(v any) bool {
	switch v.(type) {
	case nil, []byte, string:
		return false
	case List:
		return true
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// Truthy reports whether a value counts as true. Null, false, zero numbers,
// empty strings and empty lists are false; everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case String:
		return val != ""
	case Int:
		return val != 0
	case Float:
		return val != 0
	case Bool:
		return bool(val)
	case Time:
		return !time.Time(val).IsZero()
	case List:
		return len(val) > 0
	default:
		return true
	}
}

// SortedKeys returns map keys in RFC 8785 canonical order (UTF-16 code units).
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
// Go's default string comparison uses UTF-8 which orders some runes differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
