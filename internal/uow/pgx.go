package uow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Mutation applies one staged write inside a transaction and reports the
// affected-row count. A mutation may fail on its own terms (for example a
// conditional write that matched zero rows); the flush then rolls back.
type Mutation func(ctx context.Context, tx pgx.Tx) (int64, error)

// PgxUnitOfWork stages mutations and flushes them through a pgx transaction.
type PgxUnitOfWork struct {
	pool   *pgxpool.Pool
	tx     pgx.Tx
	staged []Mutation
}

// NewPgxUnitOfWork builds a unit of work bound to the pool.
func NewPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{pool: pool}
}

// Stage queues a mutation for the next flush.
func (u *PgxUnitOfWork) Stage(m Mutation) {
	u.staged = append(u.staged, m)
}

// SaveChanges flushes all staged mutations atomically.
func (u *PgxUnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	if u.tx != nil {
		return u.flush(ctx, u.tx)
	}

	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := u.flush(ctx, tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return 0, err
	}
	return affected, nil
}

// BeginTransaction opens an explicit transaction.
func (u *PgxUnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("transaction already open")
	}
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}
	u.tx = tx
	return nil
}

// Commit flushes staged changes then commits.
func (u *PgxUnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return errors.New("no open transaction")
	}
	if _, err := u.flush(ctx, u.tx); err != nil {
		_ = u.tx.Rollback(ctx)
		u.tx = nil
		return err
	}
	err := u.tx.Commit(ctx)
	if err != nil {
		_ = u.tx.Rollback(ctx)
	}
	u.tx = nil
	return err
}

// Rollback discards staged changes and aborts the transaction.
func (u *PgxUnitOfWork) Rollback(ctx context.Context) error {
	u.staged = nil
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.tx = nil
	return err
}

func (u *PgxUnitOfWork) flush(ctx context.Context, tx pgx.Tx) (int64, error) {
	staged := u.staged
	u.staged = nil
	var total int64
	for _, m := range staged {
		affected, err := m(ctx, tx)
		if err != nil {
			return 0, err
		}
		total += affected
	}
	return total, nil
}
