package postgres

import "regexp"

var (
	// errSQLSyntax is a very loose aggregation of error codes
	// originating from PostgreSQL itself
	// that are some sort of syntax issue in the statement or datatype mismatch,
	// such as a path segment like "abc" compared against an integer column.
	//
	// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
	errSQLSyntax = regexp.MustCompile(`SQLSTATE (42601|22P02)`)

	// errUndefinedColumn surfaces a route naming a column its entity lacks.
	errUndefinedColumn = regexp.MustCompile(`SQLSTATE (42703)`)
)
