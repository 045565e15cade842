package db

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavor for the destination store. The two drivers
// disagree on placeholder syntax, so query builders go through Placeholder.
type Dialect string

const (
	DialectSQLServer Dialect = "sqlserver"
	DialectMySQL     Dialect = "mysql"
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) Dialect {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql":
		return DialectMySQL
	default:
		return DialectSQLServer
	}
}

// Placeholder returns the 1-based parameter marker for this dialect.
func (d Dialect) Placeholder(i int) string {
	if d == DialectSQLServer {
		return fmt.Sprintf("@p%d", i)
	}
	return "?"
}

// Placeholders returns n comma-joined markers starting at position start.
func (d Dialect) Placeholders(start, n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, d.Placeholder(start+i))
	}
	return strings.Join(parts, ", ")
}
