package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the querier every repository runs on. *pgxpool.Pool, pgx.Tx,
// and pgxmock all satisfy it, so the same repository code serves plain reads,
// transactional ledger writes, and tests.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxDatabase additionally opens transactions. Services that compose multiple
// ledger writes into one atomic unit take this.
type TxDatabase interface {
	Database
	Begin(ctx context.Context) (pgx.Tx, error)
}
