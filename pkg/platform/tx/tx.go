// Package tx carries a unit of work through context.Context so stores can
// join a transaction started by a service without knowing who started it.
package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "estatehub/pkg/domain-errors"
)

// Runner provides a transactional boundary for multi-store mutations.
// Implementations may wrap a database transaction or an in-memory lock.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const defaultTimeout = 5 * time.Second

type sqlTxKey struct{}

// WithTx stores an open SQL transaction in the context.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, sqlTxKey{}, tx)
}

// From returns the SQL transaction stored in ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// QuerierFor returns the transaction in ctx when present, otherwise db.
func QuerierFor(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Lock takes a transaction-scoped advisory lock for key. Outside a SQL
// transaction it is a no-op: the in-memory runner already serializes units of work.
func Lock(ctx context.Context, key string) error {
	tx, ok := From(ctx)
	if !ok {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire lock")
	}
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
