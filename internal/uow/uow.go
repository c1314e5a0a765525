// Package uow provides the transactional save boundary. Repositories stage
// mutations against a unit of work; SaveChanges flushes the staged set as a
// single atomic commit so no partial state is ever visible to other readers.
package uow

import "context"

// UnitOfWork groups one or more staged persistence mutations into a single
// atomic commit. At most one explicit transaction may be open per instance;
// transactions do not nest.
type UnitOfWork interface {
	// SaveChanges flushes all staged mutations atomically and returns the
	// total affected-row count. Without an open transaction it wraps the
	// flush in its own transaction; inside one it flushes into it.
	SaveChanges(ctx context.Context) (int64, error)

	// BeginTransaction opens an explicit transaction for multi-step
	// operations that must be all-or-nothing.
	BeginTransaction(ctx context.Context) error

	// Commit flushes staged changes then commits the open transaction. Any
	// failure during the flush triggers a rollback before the error
	// propagates.
	Commit(ctx context.Context) error

	// Rollback discards staged changes and aborts the open transaction.
	Rollback(ctx context.Context) error
}
