// Package db provides SQLite connectivity for the sql_asserts feature.
// Connection strings accept sqlite://path, sqlite:path, sqlite3://path
// or a bare file path.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const (
	connectTimeout = 5 * time.Second
	queryTimeout   = 30 * time.Second
)

// QueryResult holds the rows returned by a query, with column values
// keyed by column name.
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Client wraps a SQLite database handle.
type Client struct {
	db           *sql.DB
	dataSource   string
	queryTimeout time.Duration
}

// Open opens the database named by the connection string and verifies
// the connection.
func Open(connectionString string) (*Client, error) {
	dsn := parseConnectionString(connectionString)

	handle, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Client{
		db:           handle,
		dataSource:   dsn,
		queryTimeout: queryTimeout,
	}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Query executes a SQL query and collects every row. Byte slices are
// converted to strings so TEXT columns compare naturally.
func (c *Client) Query(ctx context.Context, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]interface{}, 0),
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

// parseConnectionString strips a sqlite scheme prefix, leaving the DSN.
// Anything without a recognized prefix is treated as a file path.
func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)

	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:"} {
		if strings.HasPrefix(connStr, prefix) {
			return strings.TrimPrefix(connStr, prefix)
		}
	}
	return connStr
}
