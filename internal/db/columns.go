package db

import "strings"

// Column pairs a result column with the field it scans into. A slice of
// Columns is the single field table for a query: it yields both the SELECT
// list and the Scan destinations, so the two cannot drift apart.
type Column struct {
	Name string
	Dest interface{}
}

// Names returns the comma-separated column list for a SELECT.
func Names(cols []Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// Dests returns the scan destinations in column order.
func Dests(cols []Column) []interface{} {
	dests := make([]interface{}, len(cols))
	for i, c := range cols {
		dests[i] = c.Dest
	}
	return dests
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}
