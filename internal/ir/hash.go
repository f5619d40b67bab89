package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStatement = "djq/statement/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementID computes a content-addressed ID for a compiled statement.
// Two queries share an ID exactly when they compile to the same SQL with
// the same parameters.
func StatementID(sql string, params []any) (string, error) {
	if params == nil {
		params = []any{}
	}
	canonical, err := MarshalCanonical(map[string]any{
		"sql":    sql,
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("StatementID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// MustStatementID is like StatementID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStatementID(sql string, params []any) string {
	id, err := StatementID(sql, params)
	if err != nil {
		panic(err)
	}
	return id
}
