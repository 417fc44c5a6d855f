package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryExecutor abstracts pgxpool.Pool and pgx.Tx so repository methods work
// identically inside and outside an explicit transaction.
type queryExecutor interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// scanner abstracts pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
