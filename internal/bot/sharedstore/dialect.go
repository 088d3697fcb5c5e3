package sharedstore

import (
	"strconv"
	"strings"
)

// Supported database/sql driver names for the shared store.
const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// Dialect describes how bind parameters are spelled for a driver.
type Dialect int

const (
	// Question uses "?" placeholders (SQLite).
	Question Dialect = iota
	// Dollar uses "$1, $2, ..." placeholders (PostgreSQL drivers).
	Dollar
)

// DialectFor returns the placeholder dialect of a driver name.
func DialectFor(driver string) Dialect {
	switch driver {
	case DriverPgx, DriverPostgres:
		return Dollar
	default:
		return Question
	}
}

// Supported reports whether driver is one the shared store can be opened with.
func Supported(driver string) bool {
	switch driver {
	case DriverSQLite, DriverPgx, DriverPostgres:
		return true
	}
	return false
}

// Rebind rewrites "?" placeholders for the dialect. Question marks inside
// single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Dollar {
		return query
	}

	var (
		b      strings.Builder
		n      int
		quoted bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
			b.WriteRune(r)
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
