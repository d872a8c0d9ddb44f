// storage/postgres.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-bank-ledger/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so the same queries run
// inside and outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements Reader against a dbtx.
type queries struct {
	db dbtx
}

// txQueries adds the write operations of Tx. It only ever wraps a pgx.Tx, so
// nothing outside ExecTx can mutate a balance.
type txQueries struct {
	queries
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database, retrying for a few seconds while it
// comes up. The schema is managed separately by Migrate.
func NewPostgresStore(ctx context.Context, connString string, retries uint64) (*PostgresStore, error) {
	var pool *pgxpool.Pool
	connect := func() error {
		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}

	policy := backoff.NewConstantBackOff(time.Second)
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, fmt.Errorf("could not connect to database after retries: %w", err)
	}

	return NewPostgresStoreFromPool(pool), nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: queries{db: pool}, pool: pool}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// ExecTx runs fn inside a database transaction.
func (s *PostgresStore) ExecTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", mapError(err))
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction has been committed.

	if err := fn(&txQueries{queries{db: tx}}); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("could not commit transaction: %w", mapError(err))
	}
	return nil
}

// mapError translates Postgres failures into ledger error kinds.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		// serialization_failure, deadlock_detected, lock_not_available
		return fmt.Errorf("%w: %s", model.ErrPersistenceConflict, pgErr.Message)
	case "23505":
		if pgErr.ConstraintName == "accounts_account_number_key" {
			return fmt.Errorf("%w: %s", model.ErrDuplicateAccount, pgErr.Detail)
		}
		return fmt.Errorf("%w: %s", model.ErrPersistenceConflict, pgErr.Message)
	case "23514":
		// check_violation: a balance or quantity guard caught what the engine missed.
		return fmt.Errorf("%w: %s", model.ErrInvalidAmount, pgErr.Message)
	}
	return err
}

func notFound(err error, kind error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return kind
	}
	return mapError(err)
}
