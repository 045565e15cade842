package db

import "database/sql"

// QueryRower is satisfied by *sql.DB and *sql.Tx.
type QueryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without writing empty text.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// HasTable reports whether a table exists in the current database.
// INFORMATION_SCHEMA is understood by both supported engines.
func HasTable(q QueryRower, d Dialect, table string) bool {
	query := "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = " + d.Placeholder(1)
	var name string
	if err := q.QueryRow(query, table).Scan(&name); err != nil {
		return false
	}
	return name != ""
}

// HasColumn reports whether a column exists on a table.
func HasColumn(q QueryRower, d Dialect, table, column string) bool {
	query := "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = " +
		d.Placeholder(1) + " AND COLUMN_NAME = " + d.Placeholder(2)
	var name string
	if err := q.QueryRow(query, table, column).Scan(&name); err != nil {
		return false
	}
	return name != ""
}
