package database

import (
	"database/sql"
	"fmt"
	"strings"

	"cnes-dashboard/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLite opens a local database file read-only unless it is in-memory
// or already a file: URI. One connection is kept so an in-memory database
// is the same database for every query.
func NewSQLite(path string) (*SQLClient, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db, Driver: config.DriverSQLite}, nil
}
