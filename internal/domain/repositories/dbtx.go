package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by pools and transactions, so a
// repository runs the same code inside and outside ExecTx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

// Pool is a DBTX that can also open transactions. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxFn is the unit of work run by ExecTx. Repositories called with the ctx
// it receives take part in the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs units of work atomically. A TxFn that calls
// ExecTx again joins the outer transaction rather than nesting.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

type txContextKey struct{}

// SetTx binds a transaction to the context
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetTx returns the context's transaction, nil outside ExecTx
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}
