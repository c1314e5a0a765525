package directory

import (
	"context"
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func TestRepositoryDirectoryListsCapabilityHolders(t *testing.T) {
	store := repository.NewMemoryStore()
	scopes := repository.NewMemoryScopeFactory(store)
	ctx := context.Background()

	scope := scopes.NewScope()
	agents := []*domain.Agent{
		{Base: domain.Base{ID: "a1"}, IdentityID: "a1", Name: "Ada", Capabilities: []string{domain.CapabilitySupport}},
		{Base: domain.Base{ID: "a2"}, IdentityID: "a2", Name: "Brian", Capabilities: []string{"Billing"}},
		{Base: domain.Base{ID: "a3"}, IdentityID: "a3", Name: "Carol", Capabilities: []string{domain.CapabilitySupport, "Billing"}},
	}
	for _, a := range agents {
		if err := scope.Agents.Add(ctx, a); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		t.Fatalf("SaveChanges: %v", err)
	}

	dir := NewRepositoryDirectory(scopes)
	ids, err := dir.ListByCapability(ctx, domain.CapabilitySupport)
	if err != nil {
		t.Fatalf("ListByCapability: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("pool size = %d, want 2", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["a1"] || !seen["a3"] {
		t.Fatalf("pool = %v", ids)
	}

	// Tombstoned agents drop out of the pool.
	removeScope := scopes.NewScope()
	loaded, err := removeScope.Agents.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if err := removeScope.Agents.Remove(ctx, loaded); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := removeScope.UnitOfWork.SaveChanges(ctx); err != nil {
		t.Fatalf("SaveChanges: %v", err)
	}

	ids, err = dir.ListByCapability(ctx, domain.CapabilitySupport)
	if err != nil {
		t.Fatalf("ListByCapability: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a3" {
		t.Fatalf("pool after removal = %v", ids)
	}

	empty, err := dir.ListByCapability(ctx, "Sales")
	if err != nil {
		t.Fatalf("ListByCapability: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty capability pool = %v", empty)
	}
}
