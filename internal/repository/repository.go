// Package repository provides the data access layer.
package repository

import (
	"context"
	"database/sql"
)

// DB is the query surface repositories run on.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type Scanner interface {
	Scan(dest ...interface{}) error
}
