package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// UsersQuery selects every row of the users table.
const UsersQuery = "SELECT * FROM users;"

// RowTimeFormat is the layout used to render time columns.
const RowTimeFormat = time.RFC3339

// DriverName is the database/sql driver registered by go-sql-driver/mysql.
const DriverName = "mysql"

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx needed to read rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Connect opens a MySQL connection pool for cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := Open(ctx, DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s/%s: %w", cfg.withDefaults().Addr(), cfg.Name, err)
	}
	return db, nil
}

// Open opens a connection pool for any registered driver and verifies it with a ping.
func Open(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ping(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	return nil
}

// Field is a single column of a row.
type Field struct {
	Name  string
	Value string
}

// Row is a table row with its columns in query order.
type Row []Field

// Join renders the row as name=value pairs, each followed by sep.
func (r Row) Join(sep string) string {
	var b strings.Builder
	for _, f := range r {
		b.WriteString(f.Name)
		b.WriteString("=")
		b.WriteString(f.Value)
		b.WriteString(sep)
	}
	return b.String()
}

// String renders the row as "name=value;" pairs.
func (r Row) String() string {
	return r.Join(";")
}

// NewRow pairs column names with scanned values.
func NewRow(columns []string, values []any) Row {
	row := make(Row, len(columns))
	for i, c := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row[i] = Field{Name: c, Value: formatValue(v)}
	}
	return row
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.Format(RowTimeFormat)
	default:
		return fmt.Sprint(v)
	}
}

// StreamUsers runs UsersQuery and calls fn for every row, stopping at the first error.
func StreamUsers(ctx context.Context, q Querier, fn func(Row) error) error {
	return StreamRows(ctx, q, UsersQuery, fn)
}

// StreamRows runs query and calls fn for every row, stopping at the first error.
func StreamRows(ctx context.Context, q Querier, query string, fn func(Row) error, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if err := fn(NewRow(columns, values)); err != nil {
			return err
		}
	}
	return rows.Err()
}
