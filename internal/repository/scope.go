package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/uow"
)

// Scope bundles the repositories and unit of work for one request. Each
// concurrent request gets its own scope so no staged state is shared across
// workers; only the store itself serializes concurrent writes.
type Scope struct {
	Tickets    TicketRepository
	Agents     AgentRepository
	Users      UserRepository
	UnitOfWork uow.UnitOfWork
}

// ScopeFactory creates a fresh scope per request.
type ScopeFactory interface {
	NewScope() *Scope
}

type pgxScopeFactory struct {
	pool *pgxpool.Pool
}

// NewPgxScopeFactory builds scopes backed by the Postgres pool.
func NewPgxScopeFactory(pool *pgxpool.Pool) ScopeFactory {
	return &pgxScopeFactory{pool: pool}
}

func (f *pgxScopeFactory) NewScope() *Scope {
	unit := uow.NewPgxUnitOfWork(f.pool)
	return &Scope{
		Tickets:    NewTicketRepository(f.pool, unit),
		Agents:     NewAgentRepository(f.pool, unit),
		Users:      NewUserRepository(f.pool, unit),
		UnitOfWork: unit,
	}
}
