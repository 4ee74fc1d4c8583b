// Package postgres implements the domain repositories and the transactional
// scope on top of pgx.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-go/storefront/db"
	"github.com/storefront-go/storefront/internal/domain/storage"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

var _ storage.TxManager = (*TxManager)(nil)

// TxManager implements storage.TxManager on a pgx pool. Each scope is one
// database transaction; the handle passed to fn is the pgx.Tx.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a TxManager that opens transactions on the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx begins a transaction, runs fn with its handle, and commits when fn
// returns nil. Any error, including context cancellation, rolls the scope
// back. Serialization failures and deadlocks surface as storage.ErrConflict.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		// No-op once the transaction is committed.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return mapConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(errors.Wrap(err, "commit tx"))
	}
	return nil
}

// txFrom unwraps the opaque scope handle into a pgx.Tx.
func txFrom(tx storage.Tx) (pgx.Tx, error) {
	t, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errors.Errorf("unexpected tx handle type %T", tx)
	}
	return t, nil
}

// mapConflict translates Postgres serialization failures (40001) and deadlock
// aborts (40P01) into storage.ErrConflict, keeping the original error in the
// chain.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return errors.Wrap(storage.ErrConflict, pgErr.Message)
		}
	}
	return err
}
