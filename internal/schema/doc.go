// Package schema holds the entity metadata that lookup paths resolve
// against: entities, their scalar fields and the relationships between them.
//
// Metadata is declared in CUE (see LoadCUE) or built directly from a
// Definition. A built Schema is immutable and safe for concurrent use.
package schema
