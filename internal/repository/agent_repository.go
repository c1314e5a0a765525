package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/uow"
)

// AgentRepository extends the generic contract with capability queries.
type AgentRepository interface {
	Repository[*domain.Agent]

	// ListByCapability returns live agents holding the named grant.
	ListByCapability(ctx context.Context, capability string) ([]*domain.Agent, error)
}

// WithCapability matches agents holding a capability grant.
type WithCapability struct {
	Name string
}

func (s WithCapability) IsSatisfiedBy(a *domain.Agent) bool {
	return a.HasCapability(s.Name)
}

func (s WithCapability) Clause() (string, []any) {
	return "? = ANY(capabilities)", []any{s.Name}
}

type agentRepository struct {
	*pgxRepository[*domain.Agent]
}

// NewAgentRepository returns a Postgres-backed agent repository bound to the
// scope's unit of work.
func NewAgentRepository(pool *pgxpool.Pool, unit *uow.PgxUnitOfWork) AgentRepository {
	return &agentRepository{
		pgxRepository: newPgxRepository(pool, unit, agentMapper()),
	}
}

func agentMapper() Mapper[*domain.Agent] {
	return Mapper[*domain.Agent]{
		Table:  "agents",
		Fields: []string{"identity_id", "name", "capabilities"},
		Values: func(a *domain.Agent) []any {
			return []any{a.IdentityID, a.Name, a.Capabilities}
		},
		Scan: func(row pgx.Row) (*domain.Agent, error) {
			var a domain.Agent
			if err := row.Scan(
				&a.ID,
				&a.IdentityID,
				&a.Name,
				&a.Capabilities,
				&a.CreatedAt,
				&a.UpdatedAt,
				&a.DeletedAt,
			); err != nil {
				return nil, err
			}
			return &a, nil
		},
	}
}

func (r *agentRepository) ListByCapability(ctx context.Context, capability string) ([]*domain.Agent, error) {
	return r.Find(ctx, WithCapability{Name: capability})
}
