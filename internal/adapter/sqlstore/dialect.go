package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect interface {
	// Name is the config driver name.
	Name() string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder(n int) string
	// MaxParams is the bind-parameter limit of a single statement.
	MaxParams() int

	Quote(ident string) string
	ColumnType(kind ColumnKind) string
	DateValue(t time.Time) any
	TableExistsQuery() string

	// Expression builders used by the report catalog.
	Year(dateExpr string) string
	Month(dateExpr string) string
	Hour(timeExpr string) string
	Floor(expr string) string
}

// Dialects.
var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// Quote double-quotes an identifier, escaping embedded quotes.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// hourOf reads the hour from an HH:MM:SS text column; substr exists in both engines.
func hourOf(timeExpr string) string {
	return fmt.Sprintf("CAST(substr(%s, 1, 2) AS INTEGER)", timeExpr)
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) MaxParams() int           { return 65535 }
func (postgresDialect) Quote(ident string) string {
	return Quote(ident)
}

func (postgresDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindInteger:
		return "INTEGER"
	case KindFloat:
		return "DOUBLE PRECISION"
	case KindBool:
		return "BOOLEAN"
	case KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func (postgresDialect) DateValue(t time.Time) any { return t }

func (postgresDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

func (postgresDialect) Year(dateExpr string) string {
	return fmt.Sprintf("CAST(EXTRACT(YEAR FROM %s) AS INTEGER)", dateExpr)
}

func (postgresDialect) Month(dateExpr string) string {
	return fmt.Sprintf("CAST(EXTRACT(MONTH FROM %s) AS INTEGER)", dateExpr)
}

func (postgresDialect) Hour(timeExpr string) string { return hourOf(timeExpr) }

func (postgresDialect) Floor(expr string) string {
	return fmt.Sprintf("CAST(FLOOR(%s) AS INTEGER)", expr)
}

// sqliteDialect stores dates as ISO text; the modernc driver would otherwise
// parse DATE-typed columns into time.Time with a local offset.
type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) MaxParams() int         { return 32766 }
func (sqliteDialect) Quote(ident string) string {
	return Quote(ident)
}

func (sqliteDialect) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindInteger, KindBool:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (sqliteDialect) DateValue(t time.Time) any { return t.Format(time.DateOnly) }

func (sqliteDialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (sqliteDialect) Year(dateExpr string) string {
	return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", dateExpr)
}

func (sqliteDialect) Month(dateExpr string) string {
	return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", dateExpr)
}

func (sqliteDialect) Hour(timeExpr string) string { return hourOf(timeExpr) }

// Floor has no builtin before SQLite 3.35 math functions, which are a
// compile-time option; this rounds toward negative infinity with integer casts.
func (sqliteDialect) Floor(expr string) string {
	return fmt.Sprintf("(CAST(%[1]s AS INTEGER) - (%[1]s < CAST(%[1]s AS INTEGER)))", expr)
}

// DialectFor returns the dialect for a config driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
