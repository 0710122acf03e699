package query

import (
	"fmt"
	"regexp"
	"strings"

	"cnes-dashboard/internal/common/config"
	apperrors "cnes-dashboard/internal/common/errors"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
	BigQuery
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	case BigQuery:
		return "bigquery"
	default:
		return "unknown"
	}
}

// DialectFor maps a backend.driver value to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverSQLite:
		return SQLite, nil
	case config.BackendBigQuery:
		return BigQuery, nil
	}
	return 0, apperrors.NewConfigurationError(fmt.Sprintf("no SQL dialect for driver %q", driver))
}

// Arg is a bound parameter. Name is only meaningful for BigQuery.
type Arg struct {
	Name  string
	Value interface{}
}

type Statement struct {
	Text string
	Args []Arg
}

// Values returns the positional argument list for database/sql.
func (s Statement) Values() []interface{} {
	values := make([]interface{}, len(s.Args))
	for i, a := range s.Args {
		values[i] = a.Value
	}
	return values
}

// SQL is the pair of statements serving one page: rows and total.
type SQL struct {
	Rows  Statement
	Count Statement
}

var tableIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// QuoteTable validates table and quotes it for dialect: backticks around
// the whole path for BigQuery, double quotes per segment otherwise.
func QuoteTable(table string, dialect Dialect) (string, error) {
	if !tableIdentifier.MatchString(table) {
		return "", apperrors.NewConfigurationError(fmt.Sprintf("invalid table identifier %q", table))
	}
	segments := strings.Split(table, ".")
	for _, s := range segments {
		if s == "" {
			return "", apperrors.NewConfigurationError(fmt.Sprintf("invalid table identifier %q", table))
		}
	}

	if dialect == BigQuery {
		return "`" + table + "`", nil
	}
	for i, s := range segments {
		segments[i] = `"` + s + `"`
	}
	return strings.Join(segments, "."), nil
}

type binder struct {
	dialect Dialect
	args    []Arg
}

func (b *binder) bind(name string, value interface{}) string {
	b.args = append(b.args, Arg{Name: name, Value: value})
	switch b.dialect {
	case Postgres:
		return fmt.Sprintf("$%d", len(b.args))
	case BigQuery:
		return "@" + name
	default:
		return "?"
	}
}

func (d Descriptor) where(b *binder) string {
	if len(d.Conditions) == 0 {
		return ""
	}
	clauses := make([]string, len(d.Conditions))
	for i, c := range d.Conditions {
		clauses[i] = fmt.Sprintf("%s = %s", c.Column, b.bind(c.Column, c.Value))
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// SQL renders the row and count statements. Filter values only ever appear
// as bound arguments.
func (d Descriptor) SQL(table string, dialect Dialect) (SQL, error) {
	quoted, err := QuoteTable(table, dialect)
	if err != nil {
		return SQL{}, err
	}

	rb := &binder{dialect: dialect}
	rowsText := "SELECT * FROM " + quoted + d.where(rb) +
		" ORDER BY " + d.OrderBy + ", " + d.TieBreak +
		" LIMIT " + rb.bind("page_limit", d.Limit) +
		" OFFSET " + rb.bind("page_offset", d.Offset)

	cb := &binder{dialect: dialect}
	countText := "SELECT COUNT(*) AS total FROM " + quoted + d.where(cb)

	return SQL{
		Rows:  Statement{Text: rowsText, Args: rb.args},
		Count: Statement{Text: countText, Args: cb.args},
	}, nil
}

// DistinctSQL lists the (estado, municipio) pairs with both sides present.
func DistinctSQL(table string, dialect Dialect) (Statement, error) {
	quoted, err := QuoteTable(table, dialect)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Text: fmt.Sprintf(
			"SELECT DISTINCT %s, %s FROM %s WHERE %s IS NOT NULL AND %s IS NOT NULL",
			ColumnRegion, ColumnSubRegion, quoted, ColumnRegion, ColumnSubRegion,
		),
	}, nil
}

// SelectAllSQL loads the whole table in sort order, for client-side
// filtering.
func SelectAllSQL(table string, dialect Dialect) (Statement, error) {
	quoted, err := QuoteTable(table, dialect)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Text: "SELECT * FROM " + quoted + " ORDER BY " + SortColumn + ", " + TieBreakColumn}, nil
}
