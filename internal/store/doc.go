// Package store provides a SQLite-backed store for entity rows and
// evaluates lookup queries against it.
//
// Tables are created from a schema with CreateTables, rows are written with
// Insert or InsertAll, and queries built by the lookup package run through
// Fetch, which compiles them with querysql.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every compiled statement ends with the root primary key in ORDER BY
//   - Identical data and queries return identical record order
//
// Entity Identity
//   - Fetch returns each root row once, in first-seen order, even when a
//     one-to-many join repeats it
//
// Storage Forms
//   - Dates are TEXT "2006-01-02", datetimes TEXT "2006-01-02 15:04:05" UTC
//   - Values are coerced to their field types before they are bound
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - one open connection, which also keeps ":memory:" databases alive
//     across calls
package store
