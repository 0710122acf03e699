package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cnes-dashboard/internal/common/config"

	_ "github.com/lib/pq"
)

// SQLClient wraps a database/sql pool opened with either the postgres or
// the sqlite driver.
type SQLClient struct {
	DB     *sql.DB
	Driver string
}

// NewPostgres opens a pool for dsn; the pool limits come from cfg so DSN
// resolution can stay with the credential provider.
func NewPostgres(cfg config.PostgresConfig, dsn string) (*SQLClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLClient{DB: db, Driver: config.DriverPostgres}, nil
}

// Ping tests the database connection
func (c *SQLClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *SQLClient) GetDB() *sql.DB {
	return c.DB
}
