// Package ir provides the literal value types carried by lookups and the
// canonical JSON encoding used to snapshot compiled queries.
//
// All other internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed set (Null, String, Int, Float, Bool, Time, List)
//   - Go inputs enter through FromGo and nowhere else
//   - Canonical JSON sorts keys by UTF-16 code units and NFC-normalizes strings
package ir
