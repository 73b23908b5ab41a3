/**
 * @description
 * Database transaction management for the ledger-service. A pgx transaction is
 * carried in the context so that repository methods executed inside
 * WithTransaction automatically run against the open transaction instead of
 * the pool.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: Transaction primitives.
 * - github.com/jackc/pgx/v5/pgxpool: Connection pool.
 */

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// PgxTxManager implements TxManager on top of a pgxpool.Pool.
type PgxTxManager struct {
	db *pgxpool.Pool
}

// NewPgxTxManager creates a new transaction manager bound to the given pool.
func NewPgxTxManager(db *pgxpool.Pool) *PgxTxManager {
	return &PgxTxManager{db: db}
}

// WithTransaction begins a transaction, runs fn with the transaction stored in
// the context, and commits on success. Any error from fn rolls the whole
// transaction back, so partial balance updates never become visible.
func (m *PgxTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txFromContext returns the transaction stored by WithTransaction, if any.
func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
