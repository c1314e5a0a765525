// Package directory resolves the current holders of a staff capability.
// Assignment treats the directory as an external collaborator: it is called
// outside any store transaction, an empty pool is a valid answer, and
// unavailability propagates instead of silently falling back.
package directory

import (
	"context"

	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// StaffDirectory lists current holders of a capability. Order is
// meaningless; the result is an unordered pool.
type StaffDirectory interface {
	ListByCapability(ctx context.Context, capability string) ([]string, error)
}

// RepositoryDirectory answers capability queries from the agents table.
type RepositoryDirectory struct {
	scopes repository.ScopeFactory
}

// NewRepositoryDirectory builds a directory backed by the agent repository.
func NewRepositoryDirectory(scopes repository.ScopeFactory) *RepositoryDirectory {
	return &RepositoryDirectory{scopes: scopes}
}

// ListByCapability returns the ids of live agents holding the grant.
func (d *RepositoryDirectory) ListByCapability(ctx context.Context, capability string) ([]string, error) {
	scope := d.scopes.NewScope()
	agents, err := scope.Agents.ListByCapability(ctx, capability)
	if err != nil {
		return nil, apperrors.NewUnavailable("staff directory", err)
	}
	ids := make([]string, 0, len(agents))
	for _, agent := range agents {
		ids = append(ids, agent.ID)
	}
	return ids, nil
}
