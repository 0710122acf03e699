package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"cnes-dashboard/internal/models"
	"cnes-dashboard/internal/query"
)

// Runner executes a rendered statement and returns its rows as records.
type Runner interface {
	Dialect() query.Dialect
	QueryRecords(ctx context.Context, stmt query.Statement) ([]models.Record, error)
}

type SQLRunner struct {
	db      *sql.DB
	dialect query.Dialect
}

func NewSQLRunner(db *sql.DB, dialect query.Dialect) *SQLRunner {
	return &SQLRunner{db: db, dialect: dialect}
}

func (r *SQLRunner) Dialect() query.Dialect { return r.dialect }

func (r *SQLRunner) QueryRecords(ctx context.Context, stmt query.Statement) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, stmt.Text, stmt.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []models.Record{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(models.Record, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}

// toInt reads a COUNT(*) result, whatever numeric type the driver chose.
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	case []byte:
		return strconv.Atoi(string(n))
	case nil:
		return 0, fmt.Errorf("count returned null")
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
