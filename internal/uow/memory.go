package uow

import (
	"context"
	"errors"
	"sync"
)

// MemoryMutation applies one staged write against in-memory state.
type MemoryMutation func(ctx context.Context) (int64, error)

// MemoryUnitOfWork mirrors the pgx unit of work for the in-memory backend
// used by tests and local development. A shared mutex stands in for the
// store's serialization so concurrent flushes never interleave.
type MemoryUnitOfWork struct {
	mu     *sync.Mutex
	open   bool
	staged []MemoryMutation
}

// NewMemoryUnitOfWork builds a unit of work serialized by mu.
func NewMemoryUnitOfWork(mu *sync.Mutex) *MemoryUnitOfWork {
	return &MemoryUnitOfWork{mu: mu}
}

// Stage queues a mutation for the next flush.
func (u *MemoryUnitOfWork) Stage(m MemoryMutation) {
	u.staged = append(u.staged, m)
}

// SaveChanges flushes all staged mutations under the store lock.
func (u *MemoryUnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.flush(ctx)
}

// BeginTransaction opens an explicit transaction.
func (u *MemoryUnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.open {
		return errors.New("transaction already open")
	}
	u.open = true
	return nil
}

// Commit flushes staged changes then closes the transaction.
func (u *MemoryUnitOfWork) Commit(ctx context.Context) error {
	if !u.open {
		return errors.New("no open transaction")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	_, err := u.flush(ctx)
	u.open = false
	return err
}

// Rollback discards staged changes.
func (u *MemoryUnitOfWork) Rollback(ctx context.Context) error {
	u.staged = nil
	u.open = false
	return nil
}

func (u *MemoryUnitOfWork) flush(ctx context.Context) (int64, error) {
	staged := u.staged
	u.staged = nil
	var total int64
	for _, m := range staged {
		affected, err := m(ctx)
		if err != nil {
			return 0, err
		}
		total += affected
	}
	return total, nil
}
