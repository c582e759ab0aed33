package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type contextKey string

const txContextKey = contextKey("tx")

// Transactional runs fn inside a database transaction. The transaction is
// stored in the context so nested store calls reuse it instead of opening
// their own.
func (a *Adapter) Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return a.inTxDo(ctx, opts, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx)
	})
}

func (a *Adapter) inTxDo(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if tx, ok := ctx.Value(txContextKey).(*sql.Tx); ok {
		return fn(ctx, tx)
	}

	tx, err := a.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}

	ctx = context.WithValue(ctx, txContextKey, tx)

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rollbackErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	return nil
}
